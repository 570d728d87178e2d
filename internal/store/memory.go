package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// MemoryStore keeps games and turns in process memory. Values are cloned on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu        sync.Mutex
	games     map[uuid.UUID]*models.Game
	gameNames map[string]uuid.UUID
	turns     map[uuid.UUID]*models.Turn
	gameTurns map[uuid.UUID][]uuid.UUID

	locks *keyedLocks
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:     make(map[uuid.UUID]*models.Game),
		gameNames: make(map[string]uuid.UUID),
		turns:     make(map[uuid.UUID]*models.Turn),
		gameTurns: make(map[uuid.UUID][]uuid.UUID),
		locks:     newKeyedLocks(),
	}
}

func (s *MemoryStore) GetGame(_ context.Context, id uuid.UUID) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.games[id].Clone(), nil
}

func (s *MemoryStore) GetGameByName(_ context.Context, name string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.gameNames[nameKey(name)]
	if !ok {
		return nil, nil
	}
	return s.games[id].Clone(), nil
}

func (s *MemoryStore) SaveGame(_ context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game.Clone()
	s.gameNames[nameKey(game.Name)] = game.ID
	return nil
}

func (s *MemoryStore) GetTurn(_ context.Context, id uuid.UUID) (*models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns[id].Clone(), nil
}

func (s *MemoryStore) GetCurrentTurn(_ context.Context, gameID uuid.UUID) (*models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok || game.CurrentTurnID == nil {
		return nil, nil
	}
	return s.turns[*game.CurrentTurnID].Clone(), nil
}

func (s *MemoryStore) SaveTurn(_ context.Context, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.turns[turn.ID]; !exists {
		s.gameTurns[turn.GameID] = append(s.gameTurns[turn.GameID], turn.ID)
	}
	s.turns[turn.ID] = turn.Clone()
	return nil
}

func (s *MemoryStore) ListTurns(_ context.Context, gameID uuid.UUID) ([]*models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.gameTurns[gameID]
	turns := make([]*models.Turn, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.turns[id]; ok {
			turns = append(turns, t.Clone())
		}
	}
	return turns, nil
}

func (s *MemoryStore) ListWaitingGames(_ context.Context) ([]*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var waiting []*models.Game
	for _, g := range s.games {
		if g.Status == models.GameWaiting {
			waiting = append(waiting, g.Clone())
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].Name < waiting[j].Name
	})
	return waiting, nil
}

// Lock serializes callers within this process only, which is all a memory
// backend can be shared by.
func (s *MemoryStore) Lock(ctx context.Context, key string) (func(), error) {
	return s.locks.Lock(ctx, key)
}

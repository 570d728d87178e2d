package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// TurnView is the client-facing projection of a turn. Answer words and scores
// appear only once the turn is complete; before that only the set of players
// who have answered is visible.
type TurnView struct {
	TurnID        uuid.UUID            `json:"turn_id"`
	QuestionerID  uuid.UUID            `json:"questioner_id"`
	Question      *string              `json:"question"`
	Phase         models.TurnPhase     `json:"phase"`
	IsComplete    bool                 `json:"is_complete"`
	Answered      map[uuid.UUID]bool   `json:"answered"`
	Answers       map[uuid.UUID]string `json:"answers,omitempty"`
	Scores        map[uuid.UUID]int    `json:"scores,omitempty"`
	TypingPlayers []uuid.UUID          `json:"typing_players,omitempty"`
}

// Snapshot is a read-only view of a game and its turns.
type Snapshot struct {
	GameID           uuid.UUID         `json:"game_id"`
	GameName         string            `json:"game_name"`
	Status           models.GameStatus `json:"status"`
	CreatorID        uuid.UUID         `json:"creator_id"`
	Players          []models.Player   `json:"players"`
	RoundsPerPlayer  int               `json:"rounds_per_player"`
	CurrentTurnIndex int               `json:"current_turn_index"`
	CurrentRound     int               `json:"current_round"`
	CurrentTurn      *TurnView         `json:"current_turn"`
	Turns            []TurnView        `json:"all_turns"`
}

// Snapshot builds the display projection of a game.
func (e *Engine) Snapshot(ctx context.Context, gameID uuid.UUID) (*Snapshot, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	turns, err := e.store.ListTurns(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("listing turns of game %s: %w", g.ID, err)
	}

	now := e.now()
	snap := &Snapshot{
		GameID:           g.ID,
		GameName:         g.Name,
		Status:           g.Status,
		CreatorID:        g.CreatorID,
		Players:          make([]models.Player, 0, len(g.Players)),
		RoundsPerPlayer:  g.RoundsPerPlayer,
		CurrentTurnIndex: g.CurrentTurnIndex,
		CurrentRound:     g.CurrentRound,
		Turns:            make([]TurnView, 0, len(turns)),
	}
	for _, p := range g.Players {
		snap.Players = append(snap.Players, *p)
	}
	for _, t := range turns {
		v := e.viewTurn(t, g, now)
		snap.Turns = append(snap.Turns, v)
		if g.CurrentTurnID != nil && *g.CurrentTurnID == t.ID {
			current := v
			snap.CurrentTurn = &current
		}
	}
	return snap, nil
}

func (e *Engine) viewTurn(t *models.Turn, g *models.Game, now time.Time) TurnView {
	v := TurnView{
		TurnID:       t.ID,
		QuestionerID: t.QuestionerID,
		Question:     t.Question,
		Phase:        t.Phase,
		IsComplete:   t.IsComplete,
		Answered:     make(map[uuid.UUID]bool, len(t.Answers)),
	}
	for id := range t.Answers {
		v.Answered[id] = true
	}
	if t.Phase == models.PhaseScoring {
		v.Answers = make(map[uuid.UUID]string, len(t.Answers))
		for id, w := range t.Answers {
			v.Answers[id] = w
		}
		v.Scores = make(map[uuid.UUID]int, len(t.Scores))
		for id, s := range t.Scores {
			v.Scores[id] = s
		}
		return v
	}
	if t.Phase == models.PhaseAnswer {
		v.TypingPlayers = e.typingPlayers(t, g, now)
	}
	return v
}

// typingPlayers lists, in join order, players who signalled typing within the
// window and have not answered yet.
func (e *Engine) typingPlayers(t *models.Turn, g *models.Game, now time.Time) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range g.Players {
		at, ok := t.TypingPlayers[p.ID]
		if !ok || t.HasAnswered(p.ID) {
			continue
		}
		if now.Sub(at) <= e.typingWindow {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

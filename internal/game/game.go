// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/matcher"
	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/jason-s-yu/wordherd/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// MinPlayers is the smallest roster that can start a game.
const MinPlayers = 3

// DefaultTypingWindow is how long a typing signal stays visible in snapshots.
const DefaultTypingWindow = 3 * time.Second

// Engine runs the game and turn state machines on top of a Store. Every call
// touching a game holds that game's store lock for its whole read-modify-write,
// so engines in different processes can share one backend.
type Engine struct {
	store        store.Store
	matcher      matcher.Matcher
	recorder     ActionRecorder
	log          logrus.FieldLogger
	now          func() time.Time
	typingWindow time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder publishes every state change to r.
func WithRecorder(r ActionRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithTypingWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.typingWindow = d
		}
	}
}

// NewEngine builds an engine. A nil matcher falls back to exact matching.
func NewEngine(s store.Store, m matcher.Matcher, opts ...Option) *Engine {
	if m == nil {
		m = matcher.Exact()
	}
	e := &Engine{
		store:        s,
		matcher:      m,
		log:          logrus.StandardLogger(),
		now:          nowUTC,
		typingWindow: DefaultTypingWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lockGame(ctx context.Context, id uuid.UUID) (func(), error) {
	unlock, err := e.store.Lock(ctx, "game:"+id.String())
	if err != nil {
		return nil, fmt.Errorf("locking game %s: %w", id, err)
	}
	return unlock, nil
}

func (e *Engine) lockName(ctx context.Context, name string) (func(), error) {
	unlock, err := e.store.Lock(ctx, "name:"+strings.ToLower(name))
	if err != nil {
		return nil, fmt.Errorf("locking game name %q: %w", name, err)
	}
	return unlock, nil
}

// loadGame fetches a game, mapping absence to NotFound.
func (e *Engine) loadGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	g, err := e.store.GetGame(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading game %s: %w", id, err)
	}
	if g == nil {
		return nil, newError(KindNotFound, "Game not found")
	}
	return g, nil
}

// CreateGame opens a new game in the waiting state with the creator as its first player.
// The name must already be lowercase.
func (e *Engine) CreateGame(ctx context.Context, gameName, creatorName string) (*models.Game, uuid.UUID, error) {
	if gameName != strings.ToLower(gameName) {
		return nil, uuid.Nil, newError(KindInvalidFormat, "Game name must be lowercase")
	}
	gameName = strings.TrimSpace(gameName)
	creatorName = strings.TrimSpace(creatorName)
	if gameName == "" {
		return nil, uuid.Nil, newError(KindEmptyInput, "Game name cannot be empty")
	}
	if creatorName == "" {
		return nil, uuid.Nil, newError(KindEmptyInput, "Player name cannot be empty")
	}

	unlock, err := e.lockName(ctx, gameName)
	if err != nil {
		return nil, uuid.Nil, err
	}
	defer unlock()

	existing, err := e.store.GetGameByName(ctx, gameName)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("looking up game name %q: %w", gameName, err)
	}
	if existing != nil && existing.Status != models.GameFinished {
		return nil, uuid.Nil, newError(KindNameTaken, "Game name already exists")
	}

	creator := models.NewPlayer(creatorName, true)
	g := models.NewGame(gameName, creator)
	rec := e.stageAction(g, creator.ID, models.ActionGameCreated, map[string]interface{}{
		"game_name":    g.Name,
		"creator_name": creator.Name,
	})
	if err := e.store.SaveGame(ctx, g); err != nil {
		return nil, uuid.Nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}

	e.log.WithFields(logrus.Fields{"game_id": g.ID, "game_name": g.Name, "player_id": creator.ID}).Info("game created")
	e.publish(rec)
	return g, creator.ID, nil
}

// JoinGame adds a player to a waiting game found by case-insensitive name.
func (e *Engine) JoinGame(ctx context.Context, gameName, playerName string) (*models.Game, uuid.UUID, error) {
	gameName = strings.TrimSpace(gameName)
	playerName = strings.TrimSpace(playerName)
	if gameName == "" {
		return nil, uuid.Nil, newError(KindEmptyInput, "Game name cannot be empty")
	}
	if playerName == "" {
		return nil, uuid.Nil, newError(KindEmptyInput, "Player name cannot be empty")
	}

	found, err := e.store.GetGameByName(ctx, gameName)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("looking up game name %q: %w", gameName, err)
	}
	if found == nil {
		return nil, uuid.Nil, newError(KindNotFound, "Game not found")
	}

	unlock, err := e.lockGame(ctx, found.ID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	defer unlock()

	// Re-read under the lock; the roster may have changed since the lookup.
	g, err := e.loadGame(ctx, found.ID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if g.Status != models.GameWaiting {
		return nil, uuid.Nil, newError(KindNotJoinable, "Game is not accepting new players")
	}
	folded := cases.Fold().String(playerName)
	for _, p := range g.Players {
		if cases.Fold().String(p.Name) == folded {
			return nil, uuid.Nil, newError(KindNameTaken, "Player name already taken in this game")
		}
	}

	p := models.NewPlayer(playerName, false)
	g.Players = append(g.Players, p)
	rec := e.stageAction(g, p.ID, models.ActionPlayerJoined, map[string]interface{}{"player_name": p.Name})
	if err := e.store.SaveGame(ctx, g); err != nil {
		return nil, uuid.Nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}

	e.log.WithFields(logrus.Fields{"game_id": g.ID, "player_id": p.ID, "players": len(g.Players)}).Info("player joined")
	e.publish(rec)
	return g, p.ID, nil
}

// StartGame moves a waiting game to playing. Only the creator may start it.
func (e *Engine) StartGame(ctx context.Context, gameID, playerID uuid.UUID, roundsPerPlayer int) (*models.Game, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if playerID != g.CreatorID {
		return nil, newError(KindNotCreator, "Only the game creator can start the game")
	}
	if g.Status != models.GameWaiting {
		return nil, newError(KindWrongState, "Game is not in waiting status")
	}
	if len(g.Players) < MinPlayers {
		return nil, newError(KindTooFewPlayers, fmt.Sprintf("At least %d players are required to start the game", MinPlayers))
	}
	if roundsPerPlayer < 1 {
		return nil, newError(KindInvalidRounds, "Rounds per player must be at least 1")
	}

	g.Status = models.GamePlaying
	g.RoundsPerPlayer = roundsPerPlayer
	g.CurrentTurnIndex = 0
	g.CurrentRound = 0
	g.CurrentTurnID = nil
	rec := e.stageAction(g, playerID, models.ActionGameStarted, map[string]interface{}{
		"rounds_per_player": roundsPerPlayer,
		"player_ids":        g.PlayerIDs(),
	})
	if err := e.store.SaveGame(ctx, g); err != nil {
		return nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}

	e.log.WithFields(logrus.Fields{"game_id": g.ID, "rounds_per_player": roundsPerPlayer}).Info("game started")
	e.publish(rec)
	return g, nil
}

// BeginTurn returns the game's active turn, creating one for the current
// questioner if none is in progress.
func (e *Engine) BeginTurn(ctx context.Context, gameID uuid.UUID) (*models.Turn, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status != models.GamePlaying {
		return nil, newError(KindWrongState, "Game is not in playing status")
	}

	current, err := e.store.GetCurrentTurn(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("loading current turn of game %s: %w", g.ID, err)
	}
	if current != nil && !current.IsComplete {
		return current, nil
	}

	if g.CurrentTurnIndex < 0 || g.CurrentTurnIndex >= len(g.Players) {
		return nil, fmt.Errorf("game %s: turn index %d out of range for %d players", g.ID, g.CurrentTurnIndex, len(g.Players))
	}
	questioner := g.Players[g.CurrentTurnIndex]
	turn := models.NewTurn(g.ID, questioner.ID, e.now())

	if err := e.store.SaveTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("saving turn %s: %w", turn.ID, err)
	}
	g.CurrentTurnID = &turn.ID
	rec := e.stageAction(g, questioner.ID, models.ActionTurnStarted, map[string]interface{}{
		"turn_id":    turn.ID,
		"turn_index": g.CurrentTurnIndex,
		"round":      g.CurrentRound,
	})
	if err := e.store.SaveGame(ctx, g); err != nil {
		return nil, fmt.Errorf("saving game %s: %w", g.ID, err)
	}

	e.log.WithFields(logrus.Fields{
		"game_id":   g.ID,
		"turn_id":   turn.ID,
		"player_id": questioner.ID,
		"round":     g.CurrentRound,
	}).Info("turn started")
	e.publish(rec)
	return turn, nil
}

// activeTurn loads the game and its in-progress turn.
func (e *Engine) activeTurn(ctx context.Context, gameID uuid.UUID) (*models.Game, *models.Turn, error) {
	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	turn, err := e.store.GetCurrentTurn(ctx, g.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading current turn of game %s: %w", g.ID, err)
	}
	if turn == nil {
		return nil, nil, newError(KindNotFound, "No active turn")
	}
	return g, turn, nil
}

// SubmitQuestion records the questioner's prompt and opens the answer phase.
func (e *Engine) SubmitQuestion(ctx context.Context, gameID, playerID uuid.UUID, text string) (*models.Turn, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, turn, err := e.activeTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := applyQuestion(turn, playerID, text); err != nil {
		return nil, err
	}
	rec := e.stageAction(g, playerID, models.ActionQuestionSubmitted, map[string]interface{}{
		"turn_id":  turn.ID,
		"question": *turn.Question,
	})
	if err := e.saveTurnAndGame(ctx, g, turn); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"game_id": g.ID, "turn_id": turn.ID, "player_id": playerID}).Debug("question submitted")
	e.publish(rec)
	return turn, nil
}

// SubmitAnswer stores one player's answer. The answer that completes the set
// also scores the turn and advances the game before returning.
func (e *Engine) SubmitAnswer(ctx context.Context, gameID, playerID uuid.UUID, word string) (*models.Turn, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, turn, err := e.activeTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	allAnswered, err := applyAnswer(turn, g, playerID, word)
	if err != nil {
		return nil, err
	}

	rec := e.stageAction(g, playerID, models.ActionAnswerSubmitted, map[string]interface{}{
		"turn_id": turn.ID,
		"answer":  turn.Answers[playerID],
	})

	if allAnswered {
		if err := e.complete(ctx, g, turn, rec); err != nil {
			return nil, err
		}
		return turn, nil
	}
	if err := e.saveTurnAndGame(ctx, g, turn); err != nil {
		return nil, err
	}
	e.publish(rec)
	return turn, nil
}

// CompleteTurn scores a turn without waiting for the remaining answers.
// Completing a turn that is already complete succeeds and changes nothing.
func (e *Engine) CompleteTurn(ctx context.Context, gameID, turnID uuid.UUID) (*models.Turn, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	turn, err := e.store.GetTurn(ctx, turnID)
	if err != nil {
		return nil, fmt.Errorf("loading turn %s: %w", turnID, err)
	}
	if turn == nil || turn.GameID != g.ID {
		return nil, newError(KindNotFound, "Turn not found")
	}
	if turn.IsComplete {
		return turn, nil
	}
	if err := e.complete(ctx, g, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

// complete scores the turn, advances the game and saves both. Actions staged
// by the caller are published along with the completion once the saves succeed.
// Assumes the game lock is held by caller.
func (e *Engine) complete(ctx context.Context, g *models.Game, turn *models.Turn, staged ...models.GameActionRecord) error {
	changed, err := finishTurn(ctx, e.matcher, turn, g)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	recs := append(staged, e.stageAction(g, turn.QuestionerID, models.ActionTurnCompleted, map[string]interface{}{
		"turn_id": turn.ID,
		"answers": turn.Answers,
		"scores":  turn.Scores,
	}))
	if g.Status == models.GameFinished {
		totals := make(map[string]int, len(g.Players))
		for _, p := range g.Players {
			totals[p.ID.String()] = p.Score
		}
		recs = append(recs, e.stageAction(g, uuid.Nil, models.ActionGameFinished, map[string]interface{}{"scores": totals}))
	}
	if err := e.saveTurnAndGame(ctx, g, turn); err != nil {
		return err
	}

	e.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"turn_id": turn.ID,
		"answers": len(turn.Answers),
	}).Info("turn completed")
	if g.Status == models.GameFinished {
		e.log.WithFields(logrus.Fields{"game_id": g.ID, "rounds": g.CurrentRound}).Info("game finished")
	}
	e.publish(recs...)
	return nil
}

func (e *Engine) saveTurnAndGame(ctx context.Context, g *models.Game, turn *models.Turn) error {
	if err := e.store.SaveTurn(ctx, turn); err != nil {
		return fmt.Errorf("saving turn %s: %w", turn.ID, err)
	}
	if err := e.store.SaveGame(ctx, g); err != nil {
		return fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	return nil
}

// advanceAfterTurnCompletion moves rotation to the next questioner, counting a
// round each time it wraps, and finishes the game once every player has asked
// RoundsPerPlayer times. The current turn reference is always cleared.
func advanceAfterTurnCompletion(g *models.Game) error {
	if len(g.Players) == 0 {
		return fmt.Errorf("game %s: cannot advance turn with no players", g.ID)
	}
	g.CurrentTurnIndex++
	if g.CurrentTurnIndex >= len(g.Players) {
		g.CurrentTurnIndex = 0
		g.CurrentRound++
	}
	if g.CurrentRound >= g.RoundsPerPlayer {
		g.Status = models.GameFinished
	}
	g.CurrentTurnID = nil
	return nil
}

// ListWaitingGames returns games that are still accepting players.
func (e *Engine) ListWaitingGames(ctx context.Context) ([]*models.Game, error) {
	games, err := e.store.ListWaitingGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing waiting games: %w", err)
	}
	return games, nil
}

// MarkTyping notes that a player is composing an answer on the active turn.
func (e *Engine) MarkTyping(ctx context.Context, gameID, playerID uuid.UUID) error {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return err
	}
	defer unlock()

	g, turn, err := e.activeTurn(ctx, gameID)
	if err != nil {
		return err
	}
	if g.PlayerByID(playerID) == nil {
		return newError(KindNotFound, "Player not found in this game")
	}
	if turn.Phase != models.PhaseAnswer {
		return newError(KindWrongPhase, "Turn is not in answer phase")
	}
	if turn.HasAnswered(playerID) {
		return nil
	}
	if turn.TypingPlayers == nil {
		turn.TypingPlayers = make(map[uuid.UUID]time.Time)
	}
	turn.TypingPlayers[playerID] = e.now()
	if err := e.store.SaveTurn(ctx, turn); err != nil {
		return fmt.Errorf("saving turn %s: %w", turn.ID, err)
	}
	return nil
}

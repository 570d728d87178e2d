package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnPhase is the step a turn is currently in.
type TurnPhase string

const (
	PhaseQuestion TurnPhase = "question"
	PhaseAnswer   TurnPhase = "answer"
	PhaseScoring  TurnPhase = "scoring"
)

// Turn is one question/answer/scoring cycle of a game.
type Turn struct {
	ID           uuid.UUID            `json:"turn_id"`
	GameID       uuid.UUID            `json:"game_id"`
	QuestionerID uuid.UUID            `json:"questioner_id"`
	Question     *string              `json:"question"`
	Answers      map[uuid.UUID]string `json:"answers"`
	Scores       map[uuid.UUID]int    `json:"scores"`
	IsComplete   bool                 `json:"is_complete"`
	Phase        TurnPhase            `json:"phase"`

	TypingPlayers map[uuid.UUID]time.Time `json:"typing_players,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NewTurn creates a turn in the question phase.
func NewTurn(gameID, questionerID uuid.UUID, now time.Time) *Turn {
	return &Turn{
		ID:            uuid.New(),
		GameID:        gameID,
		QuestionerID:  questionerID,
		Answers:       make(map[uuid.UUID]string),
		Scores:        make(map[uuid.UUID]int),
		TypingPlayers: make(map[uuid.UUID]time.Time),
		Phase:         PhaseQuestion,
		CreatedAt:     now,
	}
}

// HasAnswered reports whether the player already submitted an answer.
func (t *Turn) HasAnswered(playerID uuid.UUID) bool {
	_, ok := t.Answers[playerID]
	return ok
}

// Clone returns a deep copy of the turn.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Question != nil {
		q := *t.Question
		cp.Question = &q
	}
	cp.Answers = make(map[uuid.UUID]string, len(t.Answers))
	for k, v := range t.Answers {
		cp.Answers[k] = v
	}
	cp.Scores = make(map[uuid.UUID]int, len(t.Scores))
	for k, v := range t.Scores {
		cp.Scores[k] = v
	}
	cp.TypingPlayers = make(map[uuid.UUID]time.Time, len(t.TypingPlayers))
	for k, v := range t.TypingPlayers {
		cp.TypingPlayers[k] = v
	}
	return &cp
}

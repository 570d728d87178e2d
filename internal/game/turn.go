// internal/game/turn.go
package game

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/matcher"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// applyQuestion validates and stores the question, moving the turn to the answer phase.
func applyQuestion(turn *models.Turn, playerID uuid.UUID, text string) error {
	if playerID != turn.QuestionerID {
		return newError(KindWrongPlayer, "It's not your turn to ask a question")
	}
	if turn.Phase != models.PhaseQuestion {
		return newError(KindWrongPhase, "Turn is not in question phase")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return newError(KindEmptyInput, "Question cannot be empty")
	}
	turn.Question = &text
	turn.Phase = models.PhaseAnswer
	return nil
}

// applyAnswer validates and stores one answer. It reports whether every player
// in g has now answered.
func applyAnswer(turn *models.Turn, g *models.Game, playerID uuid.UUID, word string) (allAnswered bool, err error) {
	if turn.Phase != models.PhaseAnswer {
		return false, newError(KindWrongPhase, "Turn is not in answer phase")
	}
	if g.PlayerByID(playerID) == nil {
		return false, newError(KindNotFound, "Player not found in this game")
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return false, newError(KindEmptyInput, "Answer cannot be empty")
	}
	if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
		return false, newError(KindMultiWordInput, "Answer must be a single word")
	}
	if turn.HasAnswered(playerID) {
		return false, newError(KindDuplicateSubmission, "You have already submitted an answer")
	}

	if turn.Answers == nil {
		turn.Answers = make(map[uuid.UUID]string)
	}
	turn.Answers[playerID] = strings.ToLower(word)
	delete(turn.TypingPlayers, playerID)

	for _, p := range g.Players {
		if !turn.HasAnswered(p.ID) {
			return false, nil
		}
	}
	return true, nil
}

// finishTurn scores the turn, credits each player and advances the game.
// It reports false when the turn was already complete, in which case nothing changes.
func finishTurn(ctx context.Context, m matcher.Matcher, turn *models.Turn, g *models.Game) (bool, error) {
	if turn.IsComplete {
		return false, nil
	}
	scores := Score(ctx, m, turn, g)
	turn.Scores = scores
	for id, delta := range scores {
		if p := g.PlayerByID(id); p != nil {
			p.Score += delta
		}
	}
	turn.Phase = models.PhaseScoring
	turn.IsComplete = true
	turn.TypingPlayers = nil

	if err := advanceAfterTurnCompletion(g); err != nil {
		return true, err
	}
	return true, nil
}

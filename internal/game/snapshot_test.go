package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHidesAnswersUntilScoring(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g, ids := setupStartedGame(t, env, 1)

	_, err := env.engine.BeginTurn(ctx, g.ID)
	require.NoError(t, err)
	_, err = env.engine.SubmitQuestion(ctx, g.ID, ids[0], "Name a fruit")
	require.NoError(t, err)
	_, err = env.engine.SubmitAnswer(ctx, g.ID, ids[1], "secretword")
	require.NoError(t, err)

	snap, err := env.engine.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.CurrentTurn)
	assert.Equal(t, models.PhaseAnswer, snap.CurrentTurn.Phase)
	assert.Equal(t, map[uuid.UUID]bool{ids[1]: true}, snap.CurrentTurn.Answered)
	assert.Nil(t, snap.CurrentTurn.Answers)
	assert.Nil(t, snap.CurrentTurn.Scores)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secretword")

	_, err = env.engine.SubmitAnswer(ctx, g.ID, ids[0], "apple")
	require.NoError(t, err)
	_, err = env.engine.SubmitAnswer(ctx, g.ID, ids[2], "apple")
	require.NoError(t, err)

	snap, err = env.engine.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.CurrentTurn, "no turn in progress after completion")
	require.Len(t, snap.Turns, 1)
	done := snap.Turns[0]
	assert.True(t, done.IsComplete)
	assert.Equal(t, "secretword", done.Answers[ids[1]])
	assert.Equal(t, 2, done.Scores[ids[2]])
}

func TestSnapshotPlayersAndTurns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g, ids := setupStartedGame(t, env, 2)

	playTurn(t, env, g.ID, ids, "dog", "dog", "cat")
	playTurn(t, env, g.ID, ids, "red", "blue", "green")

	snap, err := env.engine.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "party", snap.GameName)
	assert.Equal(t, models.GamePlaying, snap.Status)
	require.Len(t, snap.Players, 3)
	assert.Equal(t, "alice", snap.Players[0].Name)
	require.Len(t, snap.Turns, 2)
	assert.Equal(t, ids[0], snap.Turns[0].QuestionerID)
	assert.Equal(t, ids[1], snap.Turns[1].QuestionerID)
	assert.Equal(t, 2, snap.CurrentTurnIndex)

	_, err = env.engine.Snapshot(ctx, uuid.New())
	requireKind(t, err, ErrNotFound)
}

func TestMarkTypingWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g, ids := setupStartedGame(t, env, 1)

	_, err := env.engine.BeginTurn(ctx, g.ID)
	require.NoError(t, err)

	err = env.engine.MarkTyping(ctx, g.ID, ids[1])
	requireKind(t, err, ErrWrongPhase)

	_, err = env.engine.SubmitQuestion(ctx, g.ID, ids[0], "Name a fruit")
	require.NoError(t, err)

	require.NoError(t, env.engine.MarkTyping(ctx, g.ID, ids[1]))
	env.clock.Advance(2 * time.Second)
	require.NoError(t, env.engine.MarkTyping(ctx, g.ID, ids[2]))

	snap, err := env.engine.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[1], ids[2]}, snap.CurrentTurn.TypingPlayers)

	env.clock.Advance(2 * time.Second)
	snap, err = env.engine.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2]}, snap.CurrentTurn.TypingPlayers)

	_, err = env.engine.SubmitAnswer(ctx, g.ID, ids[2], "kiwi")
	require.NoError(t, err)
	snap, err = env.engine.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.CurrentTurn.TypingPlayers, "answering clears the typing signal")

	err = env.engine.MarkTyping(ctx, g.ID, uuid.New())
	requireKind(t, err, ErrNotFound)
}

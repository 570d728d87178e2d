package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStore(client, time.Hour)
		},
	}
}

func newGame(name string, status models.GameStatus) *models.Game {
	g := models.NewGame(name, models.NewPlayer("alice", true))
	g.Status = status
	return g
}

func TestStoreContract(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("game not found", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				g, err := s.GetGame(ctx, uuid.New())
				require.NoError(t, err)
				assert.Nil(t, g)

				g, err = s.GetGameByName(ctx, "nope")
				require.NoError(t, err)
				assert.Nil(t, g)
			})

			t.Run("save and get game", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				g := newGame("testgame", models.GameWaiting)
				g.Players = append(g.Players, models.NewPlayer("bob", false))
				require.NoError(t, s.SaveGame(ctx, g))

				got, err := s.GetGame(ctx, g.ID)
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, g.ID, got.ID)
				assert.Equal(t, "testgame", got.Name)
				require.Len(t, got.Players, 2)
				assert.Equal(t, "bob", got.Players[1].Name)
				assert.Nil(t, got.CurrentTurnID)
			})

			t.Run("name lookup is case-insensitive", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				g := newGame("testgame", models.GameWaiting)
				require.NoError(t, s.SaveGame(ctx, g))

				for _, n := range []string{"testgame", "TESTGAME", "TestGame"} {
					got, err := s.GetGameByName(ctx, n)
					require.NoError(t, err)
					require.NotNil(t, got, n)
					assert.Equal(t, g.ID, got.ID)
				}
			})

			t.Run("saved values are not aliased", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				g := newGame("alias", models.GameWaiting)
				require.NoError(t, s.SaveGame(ctx, g))
				g.Players[0].Score = 99

				got, err := s.GetGame(ctx, g.ID)
				require.NoError(t, err)
				assert.Equal(t, 0, got.Players[0].Score)
			})

			t.Run("turns", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				g := newGame("turns", models.GamePlaying)
				require.NoError(t, s.SaveGame(ctx, g))

				turns, err := s.ListTurns(ctx, g.ID)
				require.NoError(t, err)
				assert.Empty(t, turns)

				current, err := s.GetCurrentTurn(ctx, g.ID)
				require.NoError(t, err)
				assert.Nil(t, current)

				t1 := models.NewTurn(g.ID, g.CreatorID, time.Now())
				t2 := models.NewTurn(g.ID, g.CreatorID, time.Now())
				require.NoError(t, s.SaveTurn(ctx, t1))
				require.NoError(t, s.SaveTurn(ctx, t2))

				t1.Answers[g.CreatorID] = "dog"
				require.NoError(t, s.SaveTurn(ctx, t1))

				got, err := s.GetTurn(ctx, t1.ID)
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, g.ID, got.GameID)
				assert.Equal(t, "dog", got.Answers[g.CreatorID])

				turns, err = s.ListTurns(ctx, g.ID)
				require.NoError(t, err)
				require.Len(t, turns, 2, "re-saving a turn must not append it twice")
				assert.Equal(t, t1.ID, turns[0].ID)
				assert.Equal(t, t2.ID, turns[1].ID)

				g.CurrentTurnID = &t2.ID
				require.NoError(t, s.SaveGame(ctx, g))
				current, err = s.GetCurrentTurn(ctx, g.ID)
				require.NoError(t, err)
				require.NotNil(t, current)
				assert.Equal(t, t2.ID, current.ID)
			})

			t.Run("list waiting games", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				waiting := newGame("waiting", models.GameWaiting)
				playing := newGame("playing", models.GamePlaying)
				require.NoError(t, s.SaveGame(ctx, waiting))
				require.NoError(t, s.SaveGame(ctx, playing))

				games, err := s.ListWaitingGames(ctx)
				require.NoError(t, err)
				require.Len(t, games, 1)
				assert.Equal(t, waiting.ID, games[0].ID)

				waiting.Status = models.GamePlaying
				require.NoError(t, s.SaveGame(ctx, waiting))
				games, err = s.ListWaitingGames(ctx)
				require.NoError(t, err)
				assert.Empty(t, games)
			})

			t.Run("name index follows the newest game", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				old := newGame("reuse", models.GameFinished)
				require.NoError(t, s.SaveGame(ctx, old))
				fresh := newGame("reuse", models.GameWaiting)
				require.NoError(t, s.SaveGame(ctx, fresh))

				got, err := s.GetGameByName(ctx, "reuse")
				require.NoError(t, err)
				assert.Equal(t, fresh.ID, got.ID)
			})
		})
	}
}

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocksSerializePerKey(t *testing.T) {
	locks := newKeyedLocks()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), "game:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "idle keys are released")
}

func TestKeyedLocksGiveUpOnContext(t *testing.T) {
	locks := newKeyedLocks()
	unlock, err := locks.Lock(context.Background(), "game:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "game:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestLockContract(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			unlock, err := s.Lock(ctx, "game:1")
			require.NoError(t, err)

			waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_, err = s.Lock(waitCtx, "game:1")
			assert.ErrorIs(t, err, context.DeadlineExceeded)

			other, err := s.Lock(ctx, "game:2")
			require.NoError(t, err)
			other()

			unlock()
			unlock()
			again, err := s.Lock(ctx, "game:1")
			require.NoError(t, err)
			again()
		})
	}
}

func newRedisStore(t *testing.T, mr *miniredis.Miniredis) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger, _ := test.NewNullLogger()
	return NewRedisStore(client, time.Hour, WithLogger(logger))
}

func TestRedisLockIsSharedBetweenStores(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newRedisStore(t, mr)
	b := newRedisStore(t, mr)
	ctx := context.Background()

	unlockA, err := a.Lock(ctx, "game:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("wordherd:lock:game:1"))

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = b.Lock(waitCtx, "game:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlockA()
	assert.False(t, mr.Exists("wordherd:lock:game:1"))

	unlockB, err := b.Lock(ctx, "game:1")
	require.NoError(t, err)
	unlockB()
}

func TestRedisLockExpiredHolderCannotRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newRedisStore(t, mr)
	b := newRedisStore(t, mr)
	ctx := context.Background()

	unlockA, err := a.Lock(ctx, "game:1")
	require.NoError(t, err)

	mr.FastForward(DefaultLockTTL + time.Second)
	unlockB, err := b.Lock(ctx, "game:1")
	require.NoError(t, err)

	unlockA()
	assert.True(t, mr.Exists("wordherd:lock:game:1"), "lock taken over by b survives a's release")

	unlockB()
	assert.False(t, mr.Exists("wordherd:lock:game:1"))
}

func TestRedisListWaitingDropsStaleEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newRedisStore(t, mr)
	ctx := context.Background()

	g := newGame("gone", models.GameWaiting)
	require.NoError(t, s.SaveGame(ctx, g))
	mr.Del(s.gameKey(g.ID))

	games, err := s.ListWaitingGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.False(t, mr.Exists(s.waitingKey()))
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long game state survives in redis after its last write.
const DefaultTTL = 24 * time.Hour

// DefaultLockTTL bounds how long a crashed holder can keep a game locked.
// Live holders refresh the lock every third of this.
const DefaultLockTTL = 15 * time.Second

const lockRetryDelay = 10 * time.Millisecond

// releaseLockScript and refreshLockScript only touch the lock while it still
// carries the caller's token.
var (
	releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	refreshLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisStore keeps games and turns as JSON values in redis so several server
// processes can share state. Lock is backed by redis as well.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
	log     logrus.FieldLogger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

func WithLogger(l logrus.FieldLogger) RedisOption {
	return func(s *RedisStore) { s.log = l }
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// NewRedisStore wraps an already connected client. A non-positive ttl falls
// back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, opts ...RedisOption) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &RedisStore{
		client:  client,
		prefix:  "wordherd",
		ttl:     ttl,
		lockTTL: DefaultLockTTL,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) gameKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:game:%s", s.prefix, id)
}

func (s *RedisStore) nameKey(name string) string {
	return fmt.Sprintf("%s:game_name:%s", s.prefix, nameKey(name))
}

func (s *RedisStore) waitingKey() string {
	return s.prefix + ":games:waiting"
}

func (s *RedisStore) turnKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:turn:%s", s.prefix, id)
}

func (s *RedisStore) gameTurnsKey(gameID uuid.UUID) string {
	return fmt.Sprintf("%s:game_turns:%s", s.prefix, gameID)
}

func (s *RedisStore) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", s.prefix, key)
}

func (s *RedisStore) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	data, err := s.client.Get(ctx, s.gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	var g models.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (s *RedisStore) GetGameByName(ctx context.Context, name string) (*models.Game, error) {
	raw, err := s.client.Get(ctx, s.nameKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game name %q: %w", name, err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("game name %q points at invalid id %q: %w", name, raw, err)
	}
	return s.GetGame(ctx, id)
}

func (s *RedisStore) SaveGame(ctx context.Context, game *models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", game.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.gameKey(game.ID), data, s.ttl)
		pipe.Set(ctx, s.nameKey(game.Name), game.ID.String(), s.ttl)
		if game.Status == models.GameWaiting {
			pipe.SAdd(ctx, s.waitingKey(), game.ID.String())
		} else {
			pipe.SRem(ctx, s.waitingKey(), game.ID.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save game %s: %w", game.ID, err)
	}
	return nil
}

func (s *RedisStore) GetTurn(ctx context.Context, id uuid.UUID) (*models.Turn, error) {
	data, err := s.client.Get(ctx, s.turnKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get turn %s: %w", id, err)
	}
	var t models.Turn
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode turn %s: %w", id, err)
	}
	return &t, nil
}

func (s *RedisStore) GetCurrentTurn(ctx context.Context, gameID uuid.UUID) (*models.Turn, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil || g == nil || g.CurrentTurnID == nil {
		return nil, err
	}
	return s.GetTurn(ctx, *g.CurrentTurnID)
}

func (s *RedisStore) SaveTurn(ctx context.Context, turn *models.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn %s: %w", turn.ID, err)
	}
	key := s.turnKey(turn.ID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check turn %s: %w", turn.ID, err)
	}
	listKey := s.gameTurnsKey(turn.GameID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, s.ttl)
		if exists == 0 {
			pipe.RPush(ctx, listKey, turn.ID.String())
		}
		pipe.Expire(ctx, listKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save turn %s: %w", turn.ID, err)
	}
	return nil
}

func (s *RedisStore) ListTurns(ctx context.Context, gameID uuid.UUID) ([]*models.Turn, error) {
	ids, err := s.client.LRange(ctx, s.gameTurnsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list turns of game %s: %w", gameID, err)
	}
	if len(ids) == 0 {
		return []*models.Turn{}, nil
	}
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid turn id %q in game %s: %w", raw, gameID, err)
		}
		keys = append(keys, s.turnKey(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load turns of game %s: %w", gameID, err)
	}
	turns := make([]*models.Turn, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var t models.Turn
		if err := json.Unmarshal([]byte(str), &t); err != nil {
			return nil, fmt.Errorf("decode turn of game %s: %w", gameID, err)
		}
		turns = append(turns, &t)
	}
	return turns, nil
}

func (s *RedisStore) ListWaitingGames(ctx context.Context) ([]*models.Game, error) {
	ids, err := s.client.SMembers(ctx, s.waitingKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list waiting games: %w", err)
	}
	var waiting []*models.Game
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		g, err := s.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		if g == nil || g.Status != models.GameWaiting {
			// expired or stale entry
			if err := s.client.SRem(ctx, s.waitingKey(), raw).Err(); err != nil {
				s.log.WithError(err).WithField("game_id", raw).Warn("failed to drop stale waiting game")
			}
			continue
		}
		waiting = append(waiting, g)
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].Name < waiting[j].Name
	})
	return waiting, nil
}

// Lock takes key with SET NX and a random token, polling until it is free or
// ctx is done. The lock is refreshed while held and released only if the token
// still matches, so an expired holder cannot free someone else's lock.
func (s *RedisStore) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := s.lockKey(key)
	token := uuid.NewString()
	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.keepLock(lockKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// The caller's ctx may already be cancelled.
			relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseLockScript.Run(relCtx, s.client, []string{lockKey}, token).Err(); err != nil {
				s.log.WithError(err).WithField("lock", key).Warn("failed to release lock")
			}
		})
	}, nil
}

func (s *RedisStore) keepLock(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.lockTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL/3)
			held, err := refreshLockScript.Run(ctx, s.client, []string{lockKey}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			if err != nil {
				s.log.WithError(err).WithField("lock", lockKey).Warn("failed to refresh lock")
				continue
			}
			if held == 0 {
				s.log.WithField("lock", lockKey).Warn("lock expired while held")
				return
			}
		}
	}
}

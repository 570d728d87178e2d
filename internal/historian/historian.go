// Package historian drains the game action queue from Redis into an archive.
// It records games as in progress on their first action, completed on
// game_finished and abandoned after a period of inactivity.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sink persists batches of actions. database.ActionSink is the production implementation.
type Sink interface {
	WriteActions(ctx context.Context, records []models.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) error
}

type Options struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without actions before it is abandoned.
	Inactivity time.Duration
	// SweepEvery is how often inactivity is checked.
	SweepEvery time.Duration
	// PopTimeout bounds each BLPOP so shutdown is noticed promptly.
	PopTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = "wordherd_actions"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 5 * time.Second
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 30 * time.Minute
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = time.Minute
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 3 * time.Second
	}
	return o
}

// Service encapsulates the Redis and archive logic for capturing game actions.
type Service struct {
	client *redis.Client
	sink   Sink
	opts   Options
	log    logrus.FieldLogger
	now    func() time.Time

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []models.GameActionRecord
}

func New(client *redis.Client, sink Sink, opts Options, log logrus.FieldLogger) *Service {
	opts = opts.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		client:       client,
		sink:         sink,
		opts:         opts,
		log:          log,
		now:          time.Now,
		lastActivity: make(map[uuid.UUID]time.Time),
		batch:        make([]models.GameActionRecord, 0, opts.BatchSize),
	}
}

// Run reads the queue and sweeps inactive games until ctx is cancelled, then
// flushes whatever is still batched.
func (s *Service) Run(ctx context.Context) error {
	s.log.WithField("queue", s.opts.Queue).Info("historian started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.inactivityLoop(gctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := s.Flush(flushCtx); ferr != nil {
		s.log.WithError(ferr).Error("final flush failed")
	}
	s.log.Info("historian stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readLoop pops records with BLPOP, flushing on the ticker or when the batch is full.
func (s *Service) readLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.log.WithError(err).Error("flush failed")
			}

		default:
			res, err := s.client.BLPop(ctx, s.opts.PopTimeout, s.opts.Queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.WithError(err).Error("BLPOP failed")
				time.Sleep(s.opts.PopTimeout)
				continue
			}
			// res[0] is the queue name and res[1] the payload.
			if len(res) < 2 {
				continue
			}
			s.handlePayload(ctx, res[1])
		}
	}
}

// handlePayload decodes one queued record and adds it to the batch.
func (s *Service) handlePayload(ctx context.Context, payload string) {
	var record models.GameActionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		s.log.WithError(err).Warn("invalid action record")
		return
	}

	s.activityMu.Lock()
	if record.ActionType == models.ActionGameFinished {
		delete(s.lastActivity, record.GameID)
	} else {
		s.lastActivity[record.GameID] = s.now()
	}
	s.activityMu.Unlock()

	if err := s.appendToBatch(ctx, record); err != nil {
		s.log.WithError(err).Error("flush failed")
	}
}

// appendToBatch adds a record and flushes once the batch is full.
func (s *Service) appendToBatch(ctx context.Context, record models.GameActionRecord) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	s.batch = append(s.batch, record)
	if len(s.batch) >= s.opts.BatchSize {
		return s.flushLocked(ctx)
	}
	return nil
}

// Flush writes the current batch to the sink.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.flushLocked(ctx)
}

// flushLocked assumes batchMu is held by caller. A failed batch is dropped.
func (s *Service) flushLocked(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	batch := make([]models.GameActionRecord, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]

	if err := s.sink.WriteActions(ctx, batch); err != nil {
		return fmt.Errorf("writing %d actions: %w", len(batch), err)
	}
	s.log.WithField("actions", len(batch)).Debug("flushed actions")
	return nil
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepInactive(ctx)
		}
	}
}

// sweepInactive marks every game idle for longer than the inactivity window as abandoned.
func (s *Service) sweepInactive(ctx context.Context) {
	now := s.now()
	var idle []uuid.UUID
	s.activityMu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			idle = append(idle, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	if len(idle) == 0 {
		return
	}
	// Pending actions for these games must land before they are closed out.
	if err := s.Flush(ctx); err != nil {
		s.log.WithError(err).Error("flush before abandon failed")
	}
	for _, id := range idle {
		if err := s.sink.MarkAbandoned(ctx, id); err != nil {
			s.log.WithField("game_id", id).WithError(err).Error("failed to mark game abandoned")
			continue
		}
		s.log.WithField("game_id", id).Info("marked game abandoned due to inactivity")
	}
}

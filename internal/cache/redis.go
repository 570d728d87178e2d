// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/wordherd/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "wordherd_actions"

// publishTimeout bounds a single background push.
const publishTimeout = 2 * time.Second

// ConnectRedis creates a client for addr/db and verifies it with a PING.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// Publisher pushes game action records onto a Redis list for the historian.
type Publisher struct {
	client *redis.Client
	queue  string
	log    logrus.FieldLogger
	wg     sync.WaitGroup
}

// NewPublisher returns a publisher for queue, or DefaultQueueName when queue is empty.
func NewPublisher(client *redis.Client, queue string, log logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{client: client, queue: queue, log: log}
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (p *Publisher) PublishGameAction(ctx context.Context, record models.GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// RecordAction publishes in the background so game operations never wait on Redis.
// Failures are logged and dropped.
func (p *Publisher) RecordAction(record models.GameActionRecord) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.PublishGameAction(ctx, record); err != nil {
			p.log.WithFields(logrus.Fields{
				"game_id":      record.GameID,
				"action_index": record.ActionIndex,
				"action_type":  record.ActionType,
			}).WithError(err).Warn("failed to publish game action")
		}
	}()
}

// Wait blocks until every background publish has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

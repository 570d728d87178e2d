// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB opens a pool for connStr and verifies it with a ping.
func ConnectDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	name        TEXT,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id          UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	action_index     INT NOT NULL,
	actor_player_id  UUID,
	action_type      TEXT NOT NULL,
	action_payload   JSONB NOT NULL DEFAULT '{}',
	action_time      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);

CREATE TABLE IF NOT EXISTS game_results (
	game_id    UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	player_id  UUID NOT NULL,
	score      INT NOT NULL,
	PRIMARY KEY (game_id, player_id)
);
`

// EnsureSchema creates the archive tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

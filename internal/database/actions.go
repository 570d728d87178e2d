// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// txStarter is satisfied by *pgxpool.Pool and pgx.Conn.
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ActionSink archives game action records for the historian.
type ActionSink struct {
	db txStarter
}

func NewActionSink(db txStarter) *ActionSink {
	return &ActionSink{db: db}
}

// WriteActions inserts a batch in one transaction. Replayed records are ignored.
func (s *ActionSink) WriteActions(ctx context.Context, records []models.GameActionRecord) error {
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("game %s action %d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert game actions: %w", err)
	}
	return nil
}

// MarkAbandoned closes out a game that is still in progress.
func (s *ActionSink) MarkAbandoned(ctx context.Context, gameID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, err := tx.Exec(ctx, q, gameID)
		return err
	})
}

// insertGameActionTx upserts the game row, inserts the action and, for
// game_finished, finalizes the game with its results.
func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec models.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, name, status, start_time)
		VALUES ($1, NULLIF($2, ''), 'in_progress', $3)
		ON CONFLICT (id)
		DO UPDATE SET name = COALESCE(games.name, EXCLUDED.name)
	`
	actionTime := time.UnixMilli(rec.Timestamp).UTC()
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, gameNameFrom(rec), actionTime); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if rec.ActorPlayerID != uuid.Nil {
		actor = &rec.ActorPlayerID
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_player_id, action_type, action_payload, action_time
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, actor, rec.ActionType, jsonPayload, actionTime,
	); err != nil {
		return err
	}

	if rec.ActionType != models.ActionGameFinished {
		return nil
	}
	finalizeQ := `
		UPDATE games
		SET status = 'completed', end_time = $2
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := tx.Exec(ctx, finalizeQ, rec.GameID, actionTime); err != nil {
		return err
	}
	for playerID, score := range finalScoresFrom(rec.ActionPayload) {
		q := `
			INSERT INTO game_results (game_id, player_id, score)
			VALUES ($1, $2, $3)
			ON CONFLICT (game_id, player_id)
			DO UPDATE SET score = $3
		`
		if _, err := tx.Exec(ctx, q, rec.GameID, playerID, score); err != nil {
			return err
		}
	}
	return nil
}

func gameNameFrom(rec models.GameActionRecord) string {
	if rec.ActionType != models.ActionGameCreated {
		return ""
	}
	name, _ := rec.ActionPayload["game_name"].(string)
	return name
}

// finalScoresFrom reads the "scores" object of a game_finished payload. Records
// usually arrive JSON-decoded, so numbers are float64; entries that do not parse are skipped.
func finalScoresFrom(payload map[string]interface{}) map[uuid.UUID]int {
	var raw map[string]interface{}
	switch v := payload["scores"].(type) {
	case map[string]interface{}:
		raw = v
	case map[string]int:
		raw = make(map[string]interface{}, len(v))
		for key, score := range v {
			raw[key] = score
		}
	default:
		return nil
	}
	scores := make(map[uuid.UUID]int, len(raw))
	for key, val := range raw {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		switch v := val.(type) {
		case float64:
			scores[id] = int(v)
		case int:
			scores[id] = v
		}
	}
	return scores
}

// Package store persists games and turns for the game engine. Both backends are
// volatile: the memory store lives as long as the process, and the redis store
// is used as a shared cache with an expiry.
package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// Store is the persistence contract the engine depends on. Lookups of absent
// entities return nil with a nil error. A Save must be visible to subsequent Gets.
type Store interface {
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	// GetGameByName resolves a game by name, case-insensitively.
	GetGameByName(ctx context.Context, name string) (*models.Game, error)
	// SaveGame upserts the game and refreshes the name index.
	SaveGame(ctx context.Context, game *models.Game) error

	GetTurn(ctx context.Context, id uuid.UUID) (*models.Turn, error)
	// GetCurrentTurn resolves the turn referenced by the game's CurrentTurnID.
	GetCurrentTurn(ctx context.Context, gameID uuid.UUID) (*models.Turn, error)
	// SaveTurn upserts the turn and appends it to its game's turn list if new.
	SaveTurn(ctx context.Context, turn *models.Turn) error
	// ListTurns returns every turn of the game in creation order.
	ListTurns(ctx context.Context, gameID uuid.UUID) ([]*models.Turn, error)

	ListWaitingGames(ctx context.Context) ([]*models.Game, error)

	// Lock blocks until key is held by the caller and returns the release func.
	// Every process sharing the backend sees the same lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func nameKey(name string) string {
	return strings.ToLower(name)
}

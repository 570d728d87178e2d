package models

import "github.com/google/uuid"

// Player is a participant of exactly one game. Players are owned by their Game and
// never shared across games.
type Player struct {
	ID        uuid.UUID `json:"player_id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	IsCreator bool      `json:"is_creator"`
}

// NewPlayer returns a player with a freshly generated id.
func NewPlayer(name string, isCreator bool) *Player {
	return &Player{
		ID:        uuid.New(),
		Name:      name,
		IsCreator: isCreator,
	}
}

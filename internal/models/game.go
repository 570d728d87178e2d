package models

import "github.com/google/uuid"

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GamePlaying  GameStatus = "playing"
	GameFinished GameStatus = "finished"
)

// Game is one play session. Players are kept in join order, which is also the
// order in which they take the questioner role.
type Game struct {
	ID              uuid.UUID  `json:"game_id"`
	Name            string     `json:"game_name"`
	Players         []*Player  `json:"players"`
	CreatorID       uuid.UUID  `json:"creator_id"`
	Status          GameStatus `json:"status"`
	RoundsPerPlayer int        `json:"rounds_per_player"`

	// CurrentTurnIndex points into Players and identifies the questioner.
	CurrentTurnIndex int `json:"current_turn_index"`
	// CurrentRound counts fully completed rotations.
	CurrentRound int `json:"current_round"`
	// CurrentTurnID is nil whenever no turn is in progress.
	CurrentTurnID *uuid.UUID `json:"current_turn_id"`

	// ActionIndex is the index of the last recorded history action.
	ActionIndex int `json:"action_index"`
}

// NewGame allocates a waiting game owned by the given creator.
func NewGame(name string, creator *Player) *Game {
	return &Game{
		ID:        uuid.New(),
		Name:      name,
		Players:   []*Player{creator},
		CreatorID: creator.ID,
		Status:    GameWaiting,
	}
}

// PlayerByID returns the player with the given id, or nil.
func (g *Game) PlayerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIDs returns the player ids in join order.
func (g *Game) PlayerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	return ids
}

// Clone returns a deep copy so stores never alias caller-owned state.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	if g.CurrentTurnID != nil {
		id := *g.CurrentTurnID
		cp.CurrentTurnID = &id
	}
	return &cp
}

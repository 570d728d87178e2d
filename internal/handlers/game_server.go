// internal/handlers/game_server.go
package handlers

import (
	"github.com/jason-s-yu/wordherd/internal/game"
	"github.com/sirupsen/logrus"
)

// GameServer is a high-level struct that holds the game engine shared by all handlers.
type GameServer struct {
	Engine *game.Engine
	Log    logrus.FieldLogger
}

func NewGameServer(engine *game.Engine, log logrus.FieldLogger) *GameServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GameServer{Engine: engine, Log: log}
}

// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/wordherd/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter registers every API route on a ServeMux wrapped with request
// logging and CORS.
func NewRouter(gs *GameServer, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", PingHandler)

	mux.HandleFunc("POST /api/games/create", CreateGameHandler(gs))
	mux.HandleFunc("POST /api/games/join", JoinGameHandler(gs))
	mux.HandleFunc("GET /api/games", ListGamesHandler(gs))
	mux.HandleFunc("GET /api/games/{game_id}", GameStateHandler(gs))

	mux.HandleFunc("POST /api/games/{game_id}/start", StartGameHandler(gs))
	mux.HandleFunc("POST /api/games/{game_id}/start-turn", StartTurnHandler(gs))
	mux.HandleFunc("POST /api/games/{game_id}/question", QuestionHandler(gs))
	mux.HandleFunc("POST /api/games/{game_id}/answer", AnswerHandler(gs))
	mux.HandleFunc("POST /api/games/{game_id}/complete-turn", CompleteTurnHandler(gs))
	mux.HandleFunc("POST /api/games/{game_id}/typing", TypingHandler(gs))

	return middleware.CORS(middleware.LogMiddleware(logger)(mux))
}

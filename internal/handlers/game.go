// internal/handlers/game.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
)

type nameRequest struct {
	GameName   string `json:"game_name"`
	PlayerName string `json:"player_name"`
}

type joinResponse struct {
	GameID   uuid.UUID `json:"game_id"`
	PlayerID uuid.UUID `json:"player_id"`
	GameName string    `json:"game_name"`
	Success  bool      `json:"success"`
}

type startRequest struct {
	PlayerID        string `json:"player_id"`
	RoundsPerPlayer int    `json:"rounds_per_player"`
}

type questionRequest struct {
	PlayerID string `json:"player_id"`
	Question string `json:"question"`
}

type answerRequest struct {
	PlayerID string `json:"player_id"`
	Word     string `json:"word"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type completeRequest struct {
	TurnID string `json:"turn_id"`
}

type turnResponse struct {
	Success      bool             `json:"success"`
	TurnID       uuid.UUID        `json:"turn_id"`
	QuestionerID uuid.UUID        `json:"questioner_id"`
	Phase        models.TurnPhase `json:"phase"`
	IsComplete   bool             `json:"is_complete"`
}

func newTurnResponse(t *models.Turn) turnResponse {
	return turnResponse{
		Success:      true,
		TurnID:       t.ID,
		QuestionerID: t.QuestionerID,
		Phase:        t.Phase,
		IsComplete:   t.IsComplete,
	}
}

type waitingGame struct {
	GameID      uuid.UUID `json:"game_id"`
	GameName    string    `json:"game_name"`
	PlayerCount int       `json:"player_count"`
	Players     []string  `json:"players"`
}

// PingHandler answers health checks.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pong"})
}

// CreateGameHandler opens a new game and returns the creator's player id.
func CreateGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad create game payload")
			return
		}
		g, playerID, err := gs.Engine.CreateGame(r.Context(), req.GameName, req.PlayerName)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, joinResponse{GameID: g.ID, PlayerID: playerID, GameName: g.Name, Success: true})
	}
}

// JoinGameHandler adds a player to a waiting game by name.
func JoinGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad join game payload")
			return
		}
		g, playerID, err := gs.Engine.JoinGame(r.Context(), req.GameName, req.PlayerName)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, joinResponse{GameID: g.ID, PlayerID: playerID, GameName: g.Name, Success: true})
	}
}

// ListGamesHandler lists games that are still accepting players.
func ListGamesHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := gs.Engine.ListWaitingGames(r.Context())
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		out := make([]waitingGame, 0, len(games))
		for _, g := range games {
			wg := waitingGame{GameID: g.ID, GameName: g.Name, PlayerCount: len(g.Players)}
			for _, p := range g.Players {
				wg.Players = append(wg.Players, p.Name)
			}
			out = append(out, wg)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GameStateHandler returns the snapshot of a game. Answers stay hidden until a
// turn is scored regardless of who asks.
func GameStateHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		snap, err := gs.Engine.Snapshot(r.Context(), gameID)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// StartGameHandler starts a waiting game on behalf of its creator.
func StartGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		var req startRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad start game payload")
			return
		}
		playerID, ok := parsePlayerID(req.PlayerID)
		if !ok {
			badRequest(w, "invalid player id")
			return
		}
		if _, err := gs.Engine.StartGame(r.Context(), gameID, playerID, req.RoundsPerPlayer); err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Success: true})
	}
}

// StartTurnHandler begins the next turn, or returns the one in progress.
func StartTurnHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		turn, err := gs.Engine.BeginTurn(r.Context(), gameID)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTurnResponse(turn))
	}
}

// QuestionHandler records the questioner's prompt.
func QuestionHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		var req questionRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad question payload")
			return
		}
		playerID, ok := parsePlayerID(req.PlayerID)
		if !ok {
			badRequest(w, "invalid player id")
			return
		}
		turn, err := gs.Engine.SubmitQuestion(r.Context(), gameID, playerID, req.Question)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTurnResponse(turn))
	}
}

// AnswerHandler records one answer. The response never carries other players' words.
func AnswerHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		var req answerRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad answer payload")
			return
		}
		playerID, ok := parsePlayerID(req.PlayerID)
		if !ok {
			badRequest(w, "invalid player id")
			return
		}
		turn, err := gs.Engine.SubmitAnswer(r.Context(), gameID, playerID, req.Word)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTurnResponse(turn))
	}
}

// CompleteTurnHandler scores a turn early. Completing a finished turn is a no-op.
func CompleteTurnHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		var req completeRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad complete turn payload")
			return
		}
		turnID, err := uuid.Parse(req.TurnID)
		if err != nil {
			badRequest(w, "invalid turn id")
			return
		}
		turn, err := gs.Engine.CompleteTurn(r.Context(), gameID, turnID)
		if err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTurnResponse(turn))
	}
}

// TypingHandler records that a player is composing an answer.
func TypingHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := pathGameID(r)
		if !ok {
			badRequest(w, "invalid game id")
			return
		}
		var req playerRequest
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "bad typing payload")
			return
		}
		playerID, ok := parsePlayerID(req.PlayerID)
		if !ok {
			badRequest(w, "invalid player id")
			return
		}
		if err := gs.Engine.MarkTyping(r.Context(), gameID, playerID); err != nil {
			writeError(w, gs.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Success: true})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/game"
	"github.com/sirupsen/logrus"
)

// actionResponse is the body of every response that carries no other data.
type actionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusForKind maps a rejection kind to an HTTP status.
func statusForKind(kind game.ErrorKind) int {
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindNotCreator, game.KindWrongPlayer:
		return http.StatusForbidden
	case game.KindNameTaken, game.KindNotJoinable, game.KindWrongState, game.KindWrongPhase,
		game.KindTooFewPlayers, game.KindDuplicateSubmission:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// writeError reports a rejection with its message, or a generic 500 for
// anything that is not a game rejection.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, r *http.Request, err error) {
	if kind, ok := game.KindOf(err); ok {
		writeJSON(w, statusForKind(kind), actionResponse{Success: false, Error: err.Error()})
		return
	}
	log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, actionResponse{Success: false, Error: "Internal server error"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, actionResponse{Success: false, Error: msg})
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathGameID parses the {game_id} path segment.
func pathGameID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("game_id"))
	return id, err == nil
}

// parsePlayerID parses a player id from a request field.
func parsePlayerID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil
}

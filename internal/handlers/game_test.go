// internal/handlers/game_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/game"
	"github.com/jason-s-yu/wordherd/internal/matcher"
	"github.com/jason-s-yu/wordherd/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	engine := game.NewEngine(store.NewMemoryStore(), matcher.Exact(), game.WithLogger(logger))
	return NewRouter(NewGameServer(engine, logger), logger)
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
func do(t *testing.T, h http.Handler, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type setupResult struct {
	GameID  uuid.UUID
	Players []uuid.UUID
}

func createStartedGame(t *testing.T, h http.Handler) setupResult {
	t.Helper()
	var created joinResponse
	code := do(t, h, http.MethodPost, "/api/games/create", nameRequest{GameName: "party", PlayerName: "alice"}, &created)
	require.Equal(t, http.StatusOK, code)
	res := setupResult{GameID: created.GameID, Players: []uuid.UUID{created.PlayerID}}

	for _, name := range []string{"bob", "carol"} {
		var joined joinResponse
		code := do(t, h, http.MethodPost, "/api/games/join", nameRequest{GameName: "party", PlayerName: name}, &joined)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, created.GameID, joined.GameID)
		res.Players = append(res.Players, joined.PlayerID)
	}

	var started actionResponse
	code = do(t, h, http.MethodPost, "/api/games/"+res.GameID.String()+"/start",
		startRequest{PlayerID: res.Players[0].String(), RoundsPerPlayer: 1}, &started)
	require.Equal(t, http.StatusOK, code)
	require.True(t, started.Success)
	return res
}

func TestPing(t *testing.T) {
	h := newTestRouter(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ping", nil, &body))
	assert.Equal(t, "Pong", body["message"])
}

func TestFullTurnOverHTTP(t *testing.T) {
	h := newTestRouter(t)
	g := createStartedGame(t, h)
	base := "/api/games/" + g.GameID.String()

	var turn turnResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/start-turn", nil, &turn))
	assert.Equal(t, g.Players[0], turn.QuestionerID)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/question",
		questionRequest{PlayerID: g.Players[0].String(), Question: "Name a pet"}, &turn))
	assert.Equal(t, "answer", string(turn.Phase))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/typing",
		playerRequest{PlayerID: g.Players[1].String()}, nil))

	words := []string{"dog", "dog", "cat"}
	for i, id := range g.Players {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/answer",
			answerRequest{PlayerID: id.String(), Word: words[i]}, &turn))
	}
	assert.True(t, turn.IsComplete)

	var snap game.Snapshot
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, base+"?player_id="+g.Players[0].String(), nil, &snap))
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, 2, snap.Turns[0].Scores[g.Players[1]])
	assert.Equal(t, "cat", snap.Turns[0].Answers[g.Players[2]])
	assert.Equal(t, 1, snap.Players[0].Score)

	var again turnResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/complete-turn",
		completeRequest{TurnID: turn.TurnID.String()}, &again))
	assert.True(t, again.IsComplete)
}

func TestAnswerResponseHidesWords(t *testing.T) {
	h := newTestRouter(t)
	g := createStartedGame(t, h)
	base := "/api/games/" + g.GameID.String()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/start-turn", nil, nil))
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/question",
		questionRequest{PlayerID: g.Players[0].String(), Question: "Name a pet"}, nil))

	req := httptest.NewRequest(http.MethodPost, base+"/answer",
		bytes.NewBufferString(`{"player_id":"`+g.Players[1].String()+`","word":"hamster"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hamster")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hamster")
}

func TestErrorStatuses(t *testing.T) {
	h := newTestRouter(t)
	g := createStartedGame(t, h)
	base := "/api/games/" + g.GameID.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		msg    string
	}{
		{"uppercase name", http.MethodPost, "/api/games/create", nameRequest{GameName: "Party", PlayerName: "x"}, http.StatusBadRequest, "Game name must be lowercase"},
		{"name taken", http.MethodPost, "/api/games/create", nameRequest{GameName: "party", PlayerName: "x"}, http.StatusConflict, "Game name already exists"},
		{"join unknown", http.MethodPost, "/api/games/join", nameRequest{GameName: "nope", PlayerName: "x"}, http.StatusNotFound, "Game not found"},
		{"join started", http.MethodPost, "/api/games/join", nameRequest{GameName: "party", PlayerName: "dave"}, http.StatusConflict, "Game is not accepting new players"},
		{"unknown game", http.MethodGet, "/api/games/" + uuid.NewString(), nil, http.StatusNotFound, "Game not found"},
		{"bad game id", http.MethodGet, "/api/games/not-a-uuid", nil, http.StatusBadRequest, "invalid game id"},
		{"not creator", http.MethodPost, base + "/start", startRequest{PlayerID: g.Players[1].String(), RoundsPerPlayer: 1}, http.StatusForbidden, "Only the game creator can start the game"},
		{"already started", http.MethodPost, base + "/start", startRequest{PlayerID: g.Players[0].String(), RoundsPerPlayer: 1}, http.StatusConflict, "Game is not in waiting status"},
		{"no active turn", http.MethodPost, base + "/question", questionRequest{PlayerID: g.Players[0].String(), Question: "q"}, http.StatusNotFound, "No active turn"},
		{"bad player id", http.MethodPost, base + "/answer", answerRequest{PlayerID: "me", Word: "w"}, http.StatusBadRequest, "invalid player id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp actionResponse
			assert.Equal(t, tt.status, do(t, h, tt.method, tt.path, tt.body, &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.msg, resp.Error)
		})
	}
}

func TestTurnErrorStatuses(t *testing.T) {
	h := newTestRouter(t)
	g := createStartedGame(t, h)
	base := "/api/games/" + g.GameID.String()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/start-turn", nil, nil))

	var resp actionResponse
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, base+"/question",
		questionRequest{PlayerID: g.Players[1].String(), Question: "q"}, &resp))
	assert.Equal(t, "It's not your turn to ask a question", resp.Error)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, base+"/answer",
		answerRequest{PlayerID: g.Players[1].String(), Word: "w"}, &resp))

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/question",
		questionRequest{PlayerID: g.Players[0].String(), Question: "Name a fruit"}, nil))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, base+"/answer",
		answerRequest{PlayerID: g.Players[1].String(), Word: "two words"}, &resp))
	assert.Equal(t, "Answer must be a single word", resp.Error)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/answer",
		answerRequest{PlayerID: g.Players[1].String(), Word: "fig"}, nil))
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, base+"/answer",
		answerRequest{PlayerID: g.Players[1].String(), Word: "fig"}, &resp))
	assert.Equal(t, "You have already submitted an answer", resp.Error)
}

func TestListGames(t *testing.T) {
	h := newTestRouter(t)
	for _, name := range []string{"beta", "alpha"} {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/games/create",
			nameRequest{GameName: name, PlayerName: "host"}, nil))
	}
	createStartedGame(t, h)

	var games []waitingGame
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/games", nil, &games))
	require.Len(t, games, 2)
	assert.Equal(t, "alpha", games[0].GameName)
	assert.Equal(t, []string{"host"}, games[0].Players)
	assert.Equal(t, 1, games[1].PlayerCount)
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForKind(game.KindInvalidRounds))
	assert.Equal(t, http.StatusBadRequest, statusForKind(game.KindEmptyInput))
	assert.Equal(t, http.StatusConflict, statusForKind(game.KindTooFewPlayers))
	assert.Equal(t, http.StatusForbidden, statusForKind(game.KindWrongPlayer))
	assert.Equal(t, http.StatusNotFound, statusForKind(game.KindNotFound))
}

package matcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOracle(t *testing.T, handler http.HandlerFunc) *OpenAIOracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	o := NewOpenAIOracle("test-key", "")
	require.NotNil(t, o)
	o.BaseURL = srv.URL
	o.Client = srv.Client()
	return o
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
}

func TestNewOpenAIOracleRequiresKey(t *testing.T) {
	assert.Nil(t, NewOpenAIOracle("  ", "gpt-4o-mini"))
}

func TestOpenAIOracleYes(t *testing.T) {
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultOpenAIModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "'automobile' and 'car'")
		chatReply(w, " yes\n")
	})

	ok, err := o.Similar(context.Background(), "automobile", "car")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenAIOracleNo(t *testing.T) {
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, "NO")
	})
	ok, err := o.Similar(context.Background(), "dog", "cat")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenAIOracleErrors(t *testing.T) {
	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})
	_, err := o.Similar(context.Background(), "dog", "cat")
	assert.Error(t, err)

	empty := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err = empty.Similar(context.Background(), "dog", "cat")
	assert.Error(t, err)

	m := New(WithThreshold(0), WithOracle(o, 0))
	assert.False(t, m.Similar(context.Background(), "dog", "puppy"))
}

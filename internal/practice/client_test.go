package practice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/llm"
	"github.com/MikeSquared-Agency/lingo/internal/store"
)

func TestAPIClient_StreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req chat.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, language.Spanish, req.Language)
		assert.Equal(t, "Hola", req.Messages[0].Content)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(`{"chatResponse":"¡Hola!"}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL+"/", "tok")
	body, err := c.StreamChat(context.Background(), chat.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hola"}},
		Language: language.Spanish,
	})
	require.NoError(t, err)
	defer body.Close()

	b, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"chatResponse":"¡Hola!"}`, string(b))
}

func TestAPIClient_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"text is required"}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, "")
	_, err := c.Speak(context.Background(), "", language.English)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "text is required", httpErr.Message)
}

func TestAPIClient_DataEndpoints(t *testing.T) {
	var gotLanguage, gotName string
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Portuguese", r.URL.Query().Get("language"))
		json.NewEncoder(w).Encode([]store.Message{{Role: "user", Content: "Olá"}})
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]store.HistoryEntry{{Sentence: "Olá", Category: "greeting"}})
	})
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(store.Settings{Language: language.Portuguese, Name: "Rui"})
	})
	mux.HandleFunc("/settings/language", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotLanguage = body["language"]
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/settings/name", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotName = body["name"]
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("language"))
		json.NewEncoder(w).Encode(store.Summarize("", 2, 3, 15))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewAPIClient(server.URL, "")
	ctx := context.Background()

	msgs, err := c.ListMessages(ctx, language.Portuguese)
	require.NoError(t, err)
	assert.Equal(t, "Olá", msgs[0].Content)

	entries, err := c.ListHistory(ctx, language.Portuguese)
	require.NoError(t, err)
	assert.Equal(t, "greeting", entries[0].Category)

	st, err := c.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, language.Portuguese, st.Language)

	require.NoError(t, c.SetLanguage(ctx, language.Dutch))
	assert.Equal(t, "Dutch", gotLanguage)
	require.NoError(t, c.SetName(ctx, "Rui"))
	assert.Equal(t, "Rui", gotName)

	stats, err := c.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Level)
	assert.Equal(t, 15, stats.HistoryCount)
}

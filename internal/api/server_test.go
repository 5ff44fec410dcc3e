package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/llm"
	"github.com/MikeSquared-Agency/lingo/internal/speech"
	"github.com/MikeSquared-Agency/lingo/internal/store"
)

type fakeChat struct {
	tokens []string
	err    error
	// errAfterTokens returns err after writing the tokens
	errAfterTokens bool
	got            chat.Request
}

func (f *fakeChat) ProviderName() string { return "fake" }

func (f *fakeChat) StreamChat(ctx context.Context, req chat.Request, w chat.TokenWriter) error {
	f.got = req
	if err := req.Validate(); err != nil {
		return err
	}
	if f.err != nil && !f.errAfterTokens {
		return f.err
	}
	for _, tok := range f.tokens {
		if err := w.WriteToken(tok); err != nil {
			return err
		}
	}
	return f.err
}

type fakeSpeech struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.audio)), nil
}

type fakeStore struct {
	messages map[language.Tag][]store.Message
	history  map[language.Tag][]store.HistoryEntry
	settings store.Settings
	err      error
	statsTag language.Tag
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: map[language.Tag][]store.Message{},
		history:  map[language.Tag][]store.HistoryEntry{},
		settings: store.Settings{Language: language.Default},
	}
}

func (f *fakeStore) ListMessages(ctx context.Context, tag language.Tag) ([]store.Message, error) {
	return f.messages[tag], f.err
}

func (f *fakeStore) ListHistory(ctx context.Context, tag language.Tag) ([]store.HistoryEntry, error) {
	return f.history[tag], f.err
}

func (f *fakeStore) GetSettings(ctx context.Context) (store.Settings, error) {
	return f.settings, f.err
}

func (f *fakeStore) SetLanguage(ctx context.Context, tag language.Tag) error {
	if f.err != nil {
		return f.err
	}
	f.settings.Language = tag
	return nil
}

func (f *fakeStore) SetName(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.settings.Name = name
	return nil
}

func (f *fakeStore) Stats(ctx context.Context, tag language.Tag) (store.Stats, error) {
	f.statsTag = tag
	return store.Summarize(tag, 3, 4.5, 12), f.err
}

type testServer struct {
	srv    *Server
	chat   *fakeChat
	speech *fakeSpeech
	store  *fakeStore
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()
	ts := &testServer{
		chat:   &fakeChat{},
		speech: &fakeSpeech{audio: []byte("mpeg")},
		store:  newFakeStore(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.srv = NewServer(8760, token, Deps{Chat: ts.chat, Speech: ts.speech, Store: ts.store}, logger)
	return ts
}

func (ts *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.srv.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, "secret")
	w := ts.do("GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	w := ts.do("GET", "/api/v1/lingo/status", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "lingo", body["agent"])
	assert.Equal(t, "fake", body["provider"])
	assert.Equal(t, "disabled", body["events"])
}

func TestNotFoundEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	w := ts.do("GET", "/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBearerAuth(t *testing.T) {
	ts := newTestServer(t, "secret")

	w := ts.do("GET", "/settings", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w))

	w = ts.do("GET", "/settings", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do("GET", "/settings", "", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChat_StreamsRawTokens(t *testing.T) {
	ts := newTestServer(t, "")
	ts.chat.tokens = []string{`{"chatResponse":`, `"Hi there!"}`}

	w := ts.do("POST", "/chat", `{"messages":[{"role":"user","content":"Hello"}],"language":"English"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"chatResponse":"Hi there!"}`, w.Body.String())
	assert.True(t, w.Flushed)
	assert.Equal(t, language.English, ts.chat.got.Language)
	assert.Equal(t, []llm.Message{{Role: "user", Content: "Hello"}}, ts.chat.got.Messages)
}

func TestChat_EmptyGenerationStill200(t *testing.T) {
	ts := newTestServer(t, "")
	w := ts.do("POST", "/chat", `{"messages":[{"role":"user","content":"Hello"}],"language":"English"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"bad json", `{"messages":`, nil, http.StatusBadRequest},
		{"empty history", `{"messages":[],"language":"English"}`, nil, http.StatusBadRequest},
		{"unknown language", `{"messages":[{"role":"user","content":"hi"}],"language":"Elvish"}`, nil, http.StatusBadRequest},
		{"upstream", `{"messages":[{"role":"user","content":"hi"}],"language":"English"}`,
			fmt.Errorf("generate: %w", &llm.UpstreamError{Provider: "openai", StatusCode: 429, Body: "rate limited"}), http.StatusBadGateway},
		{"incomplete", `{"messages":[{"role":"user","content":"hi"}],"language":"English"}`,
			fmt.Errorf("generate: %w", llm.ErrIncompleteStream), http.StatusBadGateway},
		{"user write aborted", `{"messages":[{"role":"user","content":"hi"}],"language":"English"}`,
			fmt.Errorf("%w: db down", chat.ErrUserWrite), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "")
			ts.chat.err = tt.err
			w := ts.do("POST", "/chat", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, decodeError(t, w))
		})
	}
}

func TestChat_ErrorAfterFirstTokenKeeps200(t *testing.T) {
	ts := newTestServer(t, "")
	ts.chat.tokens = []string{`{"chatResp`}
	ts.chat.err = errors.New("connection reset")
	ts.chat.errAfterTokens = true

	w := ts.do("POST", "/chat", `{"messages":[{"role":"user","content":"hi"}],"language":"English"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"chatResp`, w.Body.String())
}

func TestSpeak(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t, "")
		w := ts.do("POST", "/speak", `{"text":"Bonjour","lang":"French"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
		assert.Equal(t, "mpeg", w.Body.String())
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"empty text", speech.ErrEmptyText, http.StatusBadRequest, "text is required"},
		{"missing key", speech.ErrMissingCredential, http.StatusInternalServerError, "not configured"},
		{"upstream", &speech.UpstreamError{StatusCode: http.StatusUnprocessableEntity, Body: "voice not found"}, http.StatusUnprocessableEntity, "voice not found"},
		{"transport", errors.New("dial tcp: refused"), http.StatusInternalServerError, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "")
			ts.speech.err = tt.err
			w := ts.do("POST", "/speak", `{"text":"x"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decodeError(t, w), tt.wantMsg)
		})
	}
}

func TestMessagesAndHistory(t *testing.T) {
	ts := newTestServer(t, "")
	now := time.Now().UTC()
	ts.store.messages[language.Korean] = []store.Message{
		{ID: uuid.New(), Role: "user", Content: "안녕", Language: language.Korean, CreatedAt: now},
	}
	ts.store.history[language.Korean] = []store.HistoryEntry{
		{ID: uuid.New(), Sentence: "안녕하세요", Category: "greeting", Language: language.Korean, CreatedAt: now},
	}

	w := ts.do("GET", "/messages?language=korean", "")
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []store.Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "안녕", msgs[0].Content)

	w = ts.do("GET", "/history?language=Korean", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []store.HistoryEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "greeting", entries[0].Category)

	w = ts.do("GET", "/messages", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do("GET", "/history?language=Sindarin", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessages_StoreFailure(t *testing.T) {
	ts := newTestServer(t, "")
	ts.store.err = errors.New("db down")
	w := ts.do("GET", "/messages?language=English", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to load messages", decodeError(t, w))
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.do("PUT", "/settings/language", `{"language":"japanese"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do("PUT", "/settings/name", `{"name":"  Aiko  "}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do("GET", "/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st store.Settings
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Equal(t, language.Japanese, st.Language)
	assert.Equal(t, "Aiko", st.Name)

	w = ts.do("PUT", "/settings/language", `{"language":"Quenya"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do("PUT", "/settings/name", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.do("GET", "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, language.Tag(""), ts.store.statsTag)

	var st store.Stats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Equal(t, 3, st.LearningDays)
	assert.Equal(t, 12, st.HistoryCount)
	assert.Equal(t, 2, st.Level)
	assert.Equal(t, 20, st.Exp)

	w = ts.do("GET", "/stats?language=Thai", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, language.Thai, ts.store.statsTag)
}

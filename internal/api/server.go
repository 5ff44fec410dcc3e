package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/store"
)

const maxBodyBytes = 1 << 20

type ChatStreamer interface {
	StreamChat(ctx context.Context, req chat.Request, w chat.TokenWriter) error
	ProviderName() string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

// DataStore is the read and settings side of the store.
type DataStore interface {
	ListMessages(ctx context.Context, tag language.Tag) ([]store.Message, error)
	ListHistory(ctx context.Context, tag language.Tag) ([]store.HistoryEntry, error)
	GetSettings(ctx context.Context) (store.Settings, error)
	SetLanguage(ctx context.Context, tag language.Tag) error
	SetName(ctx context.Context, name string) error
	Stats(ctx context.Context, tag language.Tag) (store.Stats, error)
}

type Deps struct {
	Chat   ChatStreamer
	Speech Synthesizer
	Store  DataStore
	// EventsConnected is nil when event publishing is disabled.
	EventsConnected func() bool
}

type Server struct {
	router  *chi.Mux
	port    int
	deps    Deps
	logger  *slog.Logger
	httpSrv *http.Server
}

func NewServer(port int, apiToken string, deps Deps, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		deps:   deps,
		logger: logger,
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/health", s.health)

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/api/v1/lingo/status", s.status)

		r.Post("/chat", s.streamChat)
		r.Post("/speak", s.speak)
		r.Get("/messages", s.listMessages)
		r.Get("/history", s.listHistory)
		r.Get("/stats", s.stats)
		r.Get("/settings", s.getSettings)
		r.Put("/settings/language", s.setLanguage)
		r.Put("/settings/name", s.setName)
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown waits for in-flight requests, including open chat streams.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	eventsState := "disabled"
	if s.deps.EventsConnected != nil {
		eventsState = "disconnected"
		if s.deps.EventsConnected() {
			eventsState = "connected"
		}
	}
	provider := ""
	if s.deps.Chat != nil {
		provider = s.deps.Chat.ProviderName()
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":    "lingo",
		"status":   "ok",
		"provider": provider,
		"events":   eventsState,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/llm"
)

// streamWriter sends the status line lazily so that a failure before the
// first token can still become a JSON error response.
type streamWriter struct {
	w       http.ResponseWriter
	started bool
}

func (s *streamWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamWriter) WriteToken(token string) error {
	s.start()
	if _, err := io.WriteString(s.w, token); err != nil {
		return err
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// POST /chat
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sw := &streamWriter{w: w}
	err := s.deps.Chat.StreamChat(r.Context(), req, sw)
	if err == nil {
		sw.start()
		return
	}
	if sw.started {
		// Status line already sent; the service has logged the failure.
		return
	}

	reqID := middleware.GetReqID(r.Context())
	var upErr *llm.UpstreamError
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrUserWrite):
		s.logger.Error("chat aborted", "request_id", reqID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store message")
	case errors.As(err, &upErr), errors.Is(err, llm.ErrIncompleteStream):
		s.logger.Error("generation failed", "request_id", reqID, "error", err)
		writeError(w, http.StatusBadGateway, "generation failed: "+err.Error())
	default:
		s.logger.Error("chat failed", "request_id", reqID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat failed")
	}
}

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/lingo/internal/speech"
)

type speakRequest struct {
	Text string `json:"text"`
	// Lang is accepted for clients that send it; synthesis ignores it.
	Lang string `json:"lang,omitempty"`
}

// POST /speak
func (s *Server) speak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := s.deps.Speech.Synthesize(r.Context(), req.Text)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		var upErr *speech.UpstreamError
		switch {
		case errors.Is(err, speech.ErrEmptyText):
			writeError(w, http.StatusBadRequest, "text is required")
		case errors.Is(err, speech.ErrMissingCredential):
			s.logger.Error("speech synthesis not configured", "request_id", reqID)
			writeError(w, http.StatusInternalServerError, "speech synthesis API key is not configured")
		case errors.As(err, &upErr):
			s.logger.Warn("speech api error", "request_id", reqID, "status", upErr.StatusCode)
			writeError(w, upErr.StatusCode, "speech api error: "+upErr.Body)
		default:
			s.logger.Error("speech synthesis failed", "request_id", reqID, "error", err)
			writeError(w, http.StatusInternalServerError, "speech synthesis failed")
		}
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		s.logger.Warn("audio relay interrupted", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
}

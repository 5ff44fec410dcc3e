package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

const maxNameLen = 64

// languageParam reads ?language=. When optional is set an empty value is
// allowed and returned as "".
func languageParam(r *http.Request, optional bool) (language.Tag, error) {
	raw := r.URL.Query().Get("language")
	if raw == "" {
		if optional {
			return "", nil
		}
		return "", errors.New("language is required")
	}
	return language.Parse(raw)
}

// GET /messages?language=
func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	tag, err := languageParam(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := s.deps.Store.ListMessages(r.Context(), tag)
	if err != nil {
		s.logger.Error("list messages failed", "language", tag, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// GET /history?language=
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	tag, err := languageParam(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.deps.Store.ListHistory(r.Context(), tag)
	if err != nil {
		s.logger.Error("list history failed", "language", tag, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /stats?language=
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	tag, err := languageParam(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.deps.Store.Stats(r.Context(), tag)
	if err != nil {
		s.logger.Error("stats failed", "language", tag, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		s.logger.Error("get settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PUT /settings/language {"language": "..."}
func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tag, err := language.Parse(body.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Store.SetLanguage(r.Context(), tag); err != nil {
		s.logger.Error("set language failed", "language", tag, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save language")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected_language": string(tag)})
}

// PUT /settings/name {"name": "..."}
func (s *Server) setName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || len([]rune(name)) > maxNameLen {
		writeError(w, http.StatusBadRequest, "name must be between 1 and 64 characters")
		return
	}
	if err := s.deps.Store.SetName(r.Context(), name); err != nil {
		s.logger.Error("set name failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save name")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

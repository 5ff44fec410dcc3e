package practice

import (
	"context"
	"fmt"
	"sync"

	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/store"
)

// SettingsAPI is the part of the server the session persists through.
type SettingsAPI interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	SetLanguage(ctx context.Context, tag language.Tag) error
}

// Snapshot identifies the active language at the moment a request started.
// The epoch changes on every switch, so A -> B -> A still invalidates.
type Snapshot struct {
	Tag   language.Tag
	Epoch uint64
}

// Session holds the active study language. Changes are announced to a
// single listener.
type Session struct {
	api SettingsAPI

	mu       sync.Mutex
	tag      language.Tag
	epoch    uint64
	listener func(language.Tag)
}

func NewSession(api SettingsAPI) *Session {
	return &Session{api: api, tag: language.Default}
}

func (s *Session) Language() language.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tag
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Tag: s.tag, Epoch: s.epoch}
}

// Current reports whether snap still describes the active language.
func (s *Session) Current(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tag == snap.Tag && s.epoch == snap.Epoch
}

// Subscribe sets the change listener, replacing any previous one. The
// returned func removes it.
func (s *Session) Subscribe(fn func(language.Tag)) func() {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	}
}

// Load adopts the saved language from the server.
func (s *Session) Load(ctx context.Context) error {
	st, err := s.api.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s.switchTo(st.Language)
	return nil
}

// SetLanguage saves tag on the server and then makes it active.
func (s *Session) SetLanguage(ctx context.Context, tag language.Tag) error {
	if err := s.api.SetLanguage(ctx, tag); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	s.switchTo(tag)
	return nil
}

func (s *Session) switchTo(tag language.Tag) {
	s.mu.Lock()
	if tag == s.tag {
		s.mu.Unlock()
		return
	}
	s.tag = tag
	s.epoch++
	fn := s.listener
	s.mu.Unlock()

	if fn != nil {
		fn(tag)
	}
}

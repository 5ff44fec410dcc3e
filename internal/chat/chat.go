// Package chat is the streaming proxy between the practice client and the
// generation API. Tokens are relayed as they arrive; persistence of the
// assistant turn happens once the stream has ended and never affects what the
// caller already received.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MikeSquared-Agency/lingo/internal/config"
	"github.com/MikeSquared-Agency/lingo/internal/events"
	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/llm"
	"github.com/MikeSquared-Agency/lingo/internal/store"
	"github.com/MikeSquared-Agency/lingo/internal/tutor"
)

var (
	ErrInvalidRequest = errors.New("invalid chat request")
	// ErrUserWrite is returned under the abort policy when the user message
	// could not be stored. Nothing has been generated at that point.
	ErrUserWrite = errors.New("store user message")
)

var tracer = otel.Tracer("github.com/MikeSquared-Agency/lingo/internal/chat")

// Store is the subset of the store the proxy writes to.
type Store interface {
	InsertMessage(ctx context.Context, role, content string, tag language.Tag) (uuid.UUID, error)
	RecordTurn(ctx context.Context, in store.TurnIntent) store.TurnOutcome
}

// TokenWriter receives the raw generated text. Each call must reach the
// client before it returns.
type TokenWriter interface {
	WriteToken(token string) error
}

type Request struct {
	Messages []llm.Message `json:"messages"`
	Language language.Tag  `json:"language"`
}

type Options struct {
	UserWritePolicy config.UserWritePolicy
	// HistoryBudget caps the history sent upstream, in tokens. Zero sends
	// everything.
	HistoryBudget int
	CountTokens   llm.TokenCounter
}

type Service struct {
	store    Store
	provider llm.Provider
	events   events.Publisher
	opts     Options
	logger   *slog.Logger
}

func NewService(st Store, provider llm.Provider, pub events.Publisher, opts Options, logger *slog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if opts.UserWritePolicy == "" {
		opts.UserWritePolicy = config.UserWriteContinue
	}
	if opts.CountTokens == nil {
		opts.CountTokens = llm.EstimateTokens
	}
	return &Service{
		store:    st,
		provider: provider,
		events:   pub,
		opts:     opts,
		logger:   logger,
	}
}

// Validate checks the request and normalises its language.
func (r *Request) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrInvalidRequest)
	}
	for i, m := range r.Messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRequest, i, m.Role)
		}
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != llm.RoleUser {
		return fmt.Errorf("%w: last message must come from the user", ErrInvalidRequest)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: last message is empty", ErrInvalidRequest)
	}
	tag, err := language.Parse(string(r.Language))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.Language = tag
	return nil
}

// StreamChat stores the newest user message, relays one generation to w and
// then records the assistant turn. Errors returned after the first token has
// been written cannot change the response any more; the caller only logs them.
func (s *Service) StreamChat(ctx context.Context, req Request, w TokenWriter) error {
	if err := req.Validate(); err != nil {
		return err
	}
	tag := req.Language
	newest := req.Messages[len(req.Messages)-1]

	if _, err := s.store.InsertMessage(ctx, store.RoleUser, newest.Content, tag); err != nil {
		if s.opts.UserWritePolicy == config.UserWriteAbort {
			s.logger.Error("user message not stored, aborting", "language", tag, "error", err)
			return fmt.Errorf("%w: %w", ErrUserWrite, err)
		}
		s.logger.Warn("user message not stored, continuing", "language", tag, "error", err)
	}

	history := llm.TrimHistory(req.Messages, s.opts.HistoryBudget, s.opts.CountTokens)
	if dropped := len(req.Messages) - len(history); dropped > 0 {
		s.logger.Debug("history trimmed", "dropped", dropped, "kept", len(history))
	}

	genCtx, span := tracer.Start(ctx, "chat.generate")
	span.SetAttributes(
		attribute.String("lingo.language", string(tag)),
		attribute.String("lingo.provider", s.provider.Name()),
		attribute.Int("lingo.history_len", len(history)),
	)

	tokens := 0
	full, err := s.provider.Stream(genCtx, llm.Request{
		System:     tutor.SystemDirective(tag),
		Messages:   history,
		JSONObject: true,
	}, func(token string) error {
		tokens++
		return w.WriteToken(token)
	})
	span.SetAttributes(attribute.Int("lingo.tokens", tokens))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		span.End()
		if tokens > 0 {
			s.logger.Error("stream interrupted, skipping persistence",
				"language", tag, "provider", s.provider.Name(), "received", len(full), "error", err)
		}
		return fmt.Errorf("generate: %w", err)
	}
	span.End()

	// The response is complete; the client going away must not cancel the writes.
	s.complete(context.WithoutCancel(ctx), tag, full)
	return nil
}

// complete is the end-of-stream hook. It runs once per successful stream.
func (s *Service) complete(ctx context.Context, tag language.Tag, full string) {
	payload, err := tutor.ParseStructuredPayload(full)
	if err != nil {
		s.logger.Error("assistant reply is not a structured payload",
			"language", tag, "length", len(full), "error", err)
		return
	}

	intent := store.TurnIntent{Language: tag, Assistant: payload.ChatResponse}
	if draft, ok := payload.HistoryDraft(tag); ok {
		intent.History = &store.HistoryDraft{Sentence: draft.Sentence, Category: draft.Category}
	}

	out := s.store.RecordTurn(ctx, intent)
	if out.MessageErr != nil {
		s.logger.Error("assistant message not stored", "language", tag, "error", out.MessageErr)
	} else {
		s.publish(events.SubjectTurnCompleted, events.TurnCompleted{
			MessageID:   out.MessageID.String(),
			Language:    string(tag),
			Provider:    s.provider.Name(),
			ResponseLen: len(payload.ChatResponse),
			HasHistory:  intent.History != nil,
			CompletedAt: time.Now().UTC(),
		})
	}

	if intent.History == nil {
		return
	}
	if out.HistoryErr != nil {
		s.logger.Error("history entry not stored", "language", tag, "category", intent.History.Category, "error", out.HistoryErr)
		return
	}
	s.logger.Info("history entry saved", "language", tag, "category", intent.History.Category)
	s.publish(events.SubjectHistorySaved, events.HistorySaved{
		EntryID:  out.HistoryID.String(),
		Language: string(tag),
		Category: intent.History.Category,
		Sentence: intent.History.Sentence,
		SavedAt:  time.Now().UTC(),
	})
}

func (s *Service) publish(subject string, data any) {
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}

// ProviderName is reported by the status endpoint.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

// TurnIntent is everything a finished assistant turn wants to write.
type TurnIntent struct {
	Language  language.Tag
	Assistant string
	// History is nil when the turn produced nothing worth saving.
	History *HistoryDraft
}

type HistoryDraft struct {
	Sentence string
	Category string
}

// TurnOutcome reports each write separately. A zero ID with a nil error means
// the write was not attempted.
type TurnOutcome struct {
	MessageID  uuid.UUID
	MessageErr error
	HistoryID  uuid.UUID
	HistoryErr error
}

func (o TurnOutcome) Err() error {
	return errors.Join(o.MessageErr, o.HistoryErr)
}

// RecordTurn writes the assistant message and, when present, the history
// entry. The two inserts are independent: one failing does not undo or skip
// the other.
func (s *Store) RecordTurn(ctx context.Context, in TurnIntent) TurnOutcome {
	ctx, span := tracer.Start(ctx, "store.RecordTurn")
	defer span.End()

	var out TurnOutcome
	out.MessageID, out.MessageErr = s.InsertMessage(ctx, RoleAssistant, in.Assistant, in.Language)
	if in.History != nil {
		out.HistoryID, out.HistoryErr = s.InsertHistoryEntry(ctx, in.History.Sentence, in.History.Category, in.Language)
	}
	return out
}

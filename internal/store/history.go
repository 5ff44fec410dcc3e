package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

// InsertHistoryEntry saves a sentence the learner produced.
func (s *Store) InsertHistoryEntry(ctx context.Context, sentence, category string, tag language.Tag) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "store.InsertHistoryEntry")
	defer span.End()
	span.SetAttributes(attribute.String("lingo.category", category), attribute.String("lingo.language", string(tag)))

	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO learning_history (id, sentence, category, language, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, sentence, category, string(tag),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert history entry")
		return uuid.Nil, fmt.Errorf("insert history entry: %w", err)
	}
	return id, nil
}

// ListHistory returns saved sentences for one language, newest first.
func (s *Store) ListHistory(ctx context.Context, tag language.Tag) ([]HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sentence, category, language, created_at
		FROM learning_history
		WHERE language = $1
		ORDER BY created_at DESC, id DESC`, string(tag))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var lang string
		if err := rows.Scan(&e.ID, &e.Sentence, &e.Category, &lang, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Language = language.Tag(lang)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

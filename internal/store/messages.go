package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

// InsertMessage appends one conversation message. Messages are never updated.
func (s *Store) InsertMessage(ctx context.Context, role, content string, tag language.Tag) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "store.InsertMessage")
	defer span.End()
	span.SetAttributes(attribute.String("lingo.role", role), attribute.String("lingo.language", string(tag)))

	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, role, content, language, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, role, content, string(tag),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert message")
		return uuid.Nil, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// ListMessages returns the conversation for one language, oldest first.
func (s *Store) ListMessages(ctx context.Context, tag language.Tag) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, role, content, language, created_at
		FROM messages
		WHERE language = $1
		ORDER BY created_at ASC, id ASC`, string(tag))
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		var lang string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &lang, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Language = language.Tag(lang)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// Package store persists conversation messages, saved learning sentences and
// the single settings record in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

var tracer = otel.Tracer("github.com/MikeSquared-Agency/lingo/internal/store")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        uuid.UUID    `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Language  language.Tag `json:"language"`
	CreatedAt time.Time    `json:"created_at"`
}

type HistoryEntry struct {
	ID        uuid.UUID    `json:"id"`
	Sentence  string       `json:"sentence"`
	Category  string       `json:"category"`
	Language  language.Tag `json:"language"`
	CreatedAt time.Time    `json:"created_at"`
}

type Settings struct {
	Language language.Tag `json:"selected_language"`
	Name     string       `json:"name"`
}

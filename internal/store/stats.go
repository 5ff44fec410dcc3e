package store

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

// Stats summarises progress for the home screen. An empty language covers
// every language.
type Stats struct {
	Language     language.Tag `json:"language,omitempty"`
	LearningDays int          `json:"learning_days"`
	AverageWords float64      `json:"average_words"`
	HistoryCount int          `json:"history_count"`
	Level        int          `json:"level"`
	Exp          int          `json:"exp"`
}

// LearningDays counts the distinct calendar days (UTC) with at least one user message.
func (s *Store) LearningDays(ctx context.Context, tag language.Tag) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(DISTINCT (created_at AT TIME ZONE 'UTC')::date)
		FROM messages
		WHERE role = 'user' AND ($1 = '' OR language = $1)`, string(tag),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count learning days: %w", err)
	}
	return n, nil
}

// AverageWords is the mean whitespace-separated word count of saved sentences.
func (s *Store) AverageWords(ctx context.Context, tag language.Tag) (float64, error) {
	var avg float64
	err := s.pool.QueryRow(ctx, `
		SELECT coalesce(avg(array_length(regexp_split_to_array(btrim(sentence), '\s+'), 1)), 0)::float8
		FROM learning_history
		WHERE btrim(sentence) <> '' AND ($1 = '' OR language = $1)`, string(tag),
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average words: %w", err)
	}
	return avg, nil
}

func (s *Store) HistoryCount(ctx context.Context, tag language.Tag) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM learning_history WHERE ($1 = '' OR language = $1)`, string(tag),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Stats gathers all counters. Ten saved sentences make one level.
func (s *Store) Stats(ctx context.Context, tag language.Tag) (Stats, error) {
	days, err := s.LearningDays(ctx, tag)
	if err != nil {
		return Stats{}, err
	}
	avg, err := s.AverageWords(ctx, tag)
	if err != nil {
		return Stats{}, err
	}
	count, err := s.HistoryCount(ctx, tag)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(tag, days, avg, count), nil
}

// Summarize derives level and experience from the raw counters.
func Summarize(tag language.Tag, days int, avgWords float64, count int) Stats {
	return Stats{
		Language:     tag,
		LearningDays: days,
		AverageWords: avgWords,
		HistoryCount: count,
		Level:        1 + count/10,
		Exp:          (count % 10) * 10,
	}
}

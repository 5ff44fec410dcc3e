package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

const settingsID = 1

// GetSettings reads the settings row. A missing row, or a saved language that
// is no longer known, falls back to the default language.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var lang, name string
	err := s.pool.QueryRow(ctx, `
		SELECT selected_language, name FROM user_settings WHERE id = $1`, settingsID,
	).Scan(&lang, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{Language: language.Default}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}

	tag, perr := language.Parse(lang)
	if perr != nil {
		tag = language.Default
	}
	return Settings{Language: tag, Name: name}, nil
}

func (s *Store) SetLanguage(ctx context.Context, tag language.Tag) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_settings (id, selected_language)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET selected_language = EXCLUDED.selected_language`,
		settingsID, string(tag),
	)
	if err != nil {
		return fmt.Errorf("update selected language: %w", err)
	}
	return nil
}

func (s *Store) SetName(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_settings (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		settingsID, name,
	)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	return nil
}

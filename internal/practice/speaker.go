package practice

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

type SpeechAPI interface {
	Speak(ctx context.Context, text string, tag language.Tag) (io.ReadCloser, error)
}

// Speaker synthesizes text through the server and plays it. Failures are
// logged for the caller to turn into an icon state, never into text.
type Speaker struct {
	api    SpeechAPI
	player Player
	logger *slog.Logger
}

func NewSpeaker(api SpeechAPI, player Player, logger *slog.Logger) *Speaker {
	return &Speaker{api: api, player: player, logger: logger}
}

func (s *Speaker) Speak(ctx context.Context, text string, tag language.Tag) error {
	s.player.Stop()

	audio, err := s.api.Speak(ctx, text, tag)
	if err != nil {
		s.logger.Warn("speech synthesis failed", "language", tag, "error", err)
		return fmt.Errorf("synthesize: %w", err)
	}
	defer audio.Close()

	if err := s.player.Play(ctx, audio); err != nil {
		s.logger.Warn("playback failed", "language", tag, "error", err)
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// UserWritePolicy decides what the chat proxy does when the user message
// cannot be stored before generation.
type UserWritePolicy string

const (
	UserWriteContinue UserWritePolicy = "continue"
	UserWriteAbort    UserWritePolicy = "abort"
)

func (p *UserWritePolicy) UnmarshalText(text []byte) error {
	switch v := UserWritePolicy(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case UserWriteContinue, UserWriteAbort:
		*p = v
		return nil
	default:
		return fmt.Errorf("invalid user write policy %q (want continue or abort)", string(text))
	}
}

type Config struct {
	Port        int    `env:"LINGO_PORT" envDefault:"8760"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
	APIToken    string `env:"LINGO_API_TOKEN"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`

	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsBaseURL string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`
	ElevenLabsVoiceID string `env:"ELEVENLABS_VOICE_ID" envDefault:"21m00Tcm4TlvDq8ikWAM"`

	NatsURL   string `env:"NATS_URL"`
	NatsToken string `env:"NATS_TOKEN"`

	UserWritePolicy    UserWritePolicy `env:"CHAT_USER_WRITE_POLICY" envDefault:"continue"`
	HistoryTokenBudget int             `env:"CHAT_HISTORY_TOKEN_BUDGET" envDefault:"6000"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Client side.
	ServerURL string `env:"LINGO_SERVER_URL" envDefault:"http://localhost:8760"`
	Player    string `env:"LINGO_PLAYER" envDefault:"mpv --no-video --really-quiet -"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks what the HTTP server needs to start. The speech key is
// optional; /speak reports its absence per request.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for provider openai"))
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for provider anthropic"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	return errors.Join(errs...)
}

package llm

import (
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/lingo/internal/config"
)

// NewProvider builds the generation provider named by cfg.LLMProvider.
func NewProvider(cfg config.Config, logger *slog.Logger) (Provider, error) {
	switch cfg.LLMProvider {
	case "openai", "":
		logger.Info("llm provider ready", "provider", "openai", "model", cfg.OpenAIModel, "base_url", cfg.OpenAIBaseURL)
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "anthropic":
		logger.Info("llm provider ready", "provider", "anthropic", "model", cfg.AnthropicModel)
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}

package llm

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// perMessageOverhead approximates the role and separator tokens the API adds
// around every message.
const perMessageOverhead = 4

// TokenCounter returns the token length of a piece of text.
type TokenCounter func(text string) int

// TrimHistory drops the oldest messages until the rest fit in budget tokens.
// The newest message is always kept. A budget of zero or less disables
// trimming.
func TrimHistory(msgs []Message, budget int, count TokenCounter) []Message {
	if budget <= 0 || len(msgs) <= 1 {
		return msgs
	}
	last := len(msgs) - 1
	total := count(msgs[last].Content) + perMessageOverhead
	start := last
	for i := last - 1; i >= 0; i-- {
		n := count(msgs[i].Content) + perMessageOverhead
		if total+n > budget {
			break
		}
		total += n
		start = i
	}
	return msgs[start:]
}

var (
	encoding     *tiktoken.Tiktoken
	encodingErr  error
	encodingOnce sync.Once
)

// NewTokenCounter counts with the cl100k_base encoding. If the encoding cannot
// be loaded (it is fetched and cached on first use) it falls back to roughly
// four bytes per token.
func NewTokenCounter(logger *slog.Logger) TokenCounter {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encodingErr != nil {
		logger.Warn("tiktoken unavailable, using byte estimate", "error", encodingErr)
		return EstimateTokens
	}
	return func(text string) int {
		if text == "" {
			return 0
		}
		return len(encoding.Encode(text, nil, nil))
	}
}

// EstimateTokens is the fallback counter: four bytes per token, rounded up.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 2048

// Anthropic streams through the Messages API. There is no JSON response mode,
// so the directive alone keeps the output to one JSON object.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(apiKey, model string, opts ...option.RequestOption) *Anthropic {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Anthropic{
		client:    anthropic.NewClient(append(base, opts...)...),
		model:     model,
		maxTokens: defaultAnthropicMaxTokens,
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Stream(ctx context.Context, req Request, onToken TokenFunc) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var full strings.Builder
	stopped := false
	for stream.Next() {
		switch ev := stream.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			full.WriteString(delta.Text)
			if err := onToken(delta.Text); err != nil {
				return full.String(), fmt.Errorf("relay token: %w", err)
			}
		case anthropic.MessageStopEvent:
			stopped = true
		}
	}
	if err := stream.Err(); err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return full.String(), &UpstreamError{Provider: a.Name(), StatusCode: apiErr.StatusCode, Body: apiErr.Error(), Err: err}
		}
		return full.String(), &UpstreamError{Provider: a.Name(), Err: err}
	}
	if !stopped {
		return full.String(), ErrIncompleteStream
	}
	return full.String(), nil
}

// toAnthropicMessages maps chat history onto user/assistant turns. System
// messages inside the history are folded into user turns.
func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

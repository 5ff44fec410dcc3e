// Package llm talks to chat-completion APIs. Every provider streams: tokens
// are handed to a callback as they arrive and the full text is returned once
// the upstream signals the end of generation.
package llm

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrIncompleteStream means the connection ended before the upstream
// signalled end-of-generation.
var ErrIncompleteStream = errors.New("stream ended before completion")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	System   string
	Messages []Message
	// JSONObject asks the upstream for a JSON-object response where supported.
	JSONObject bool
}

// TokenFunc receives generated text in order. Returning an error aborts the
// stream.
type TokenFunc func(token string) error

type Provider interface {
	// Stream returns the concatenated text. On error the text seen so far is
	// still returned.
	Stream(ctx context.Context, req Request, onToken TokenFunc) (string, error)
	Name() string
}

// UpstreamError is a failed call to a generation API: either a non-2xx
// response (StatusCode set) or a transport failure (Err set).
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s api call: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

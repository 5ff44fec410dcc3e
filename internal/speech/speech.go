// Package speech proxies text-to-speech requests to ElevenLabs.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	modelID        = "eleven_multilingual_v2"
	maxErrorBody   = 64 << 10
)

var (
	ErrMissingCredential = errors.New("speech synthesis credential is not configured")
	ErrEmptyText         = errors.New("text is empty")
)

var tracer = otel.Tracer("github.com/MikeSquared-Agency/lingo/internal/speech")

// UpstreamError is a non-2xx answer from the synthesis API. Its status is
// passed through to the caller.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("speech api error %d: %s", e.StatusCode, e.Body)
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type Client struct {
	apiKey  string
	baseURL string
	voiceID string
	client  *http.Client
}

func NewClient(apiKey, baseURL, voiceID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		voiceID: voiceID,
		client:  &http.Client{},
	}
}

// Synthesize returns the MPEG audio for text. The caller closes the reader.
// A success response with no body is reported as an upstream error.
func (c *Client) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ctx, span := tracer.Start(ctx, "speech.Synthesize", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("lingo.text_len", len(text)), attribute.String("lingo.voice_id", c.voiceID))

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/v1/text-to-speech/" + c.voiceID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "speech api call")
		return nil, fmt.Errorf("speech api call: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		span.SetStatus(codes.Error, "speech api error")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// Peek one byte so an empty body never reaches the caller as audio.
	var first [1]byte
	n, err := io.ReadFull(resp.Body, first[:])
	if n == 0 {
		resp.Body.Close()
		span.SetStatus(codes.Error, "empty audio")
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		return nil, &UpstreamError{StatusCode: http.StatusBadGateway, Body: "empty audio response"}
	}
	return &prefixedBody{head: first[:n], ReadCloser: resp.Body}, nil
}

type prefixedBody struct {
	head []byte
	io.ReadCloser
}

func (p *prefixedBody) Read(b []byte) (int, error) {
	if len(p.head) > 0 {
		n := copy(b, p.head)
		p.head = p.head[n:]
		return n, nil
	}
	return p.ReadCloser.Read(b)
}

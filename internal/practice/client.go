// Package practice is the terminal-side of lingo: an HTTP client for the
// server, the active-language session, the chat state machine and audio
// playback.
package practice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/store"
)

// HTTPError is a non-2xx answer from the lingo server.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type APIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{},
	}
}

func (c *APIClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// send performs the request and returns the body of a 2xx response.
func (c *APIClient) send(req *http.Request) (io.ReadCloser, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var body struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp.Body, nil
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	body, err := c.send(req)
	if err != nil {
		return err
	}
	defer body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// StreamChat starts a chat turn. The returned reader yields the raw
// generated text as the server relays it.
func (c *APIClient) StreamChat(ctx context.Context, req chat.Request) (io.ReadCloser, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat", req)
	if err != nil {
		return nil, err
	}
	return c.send(httpReq)
}

func (c *APIClient) ListMessages(ctx context.Context, tag language.Tag) ([]store.Message, error) {
	var msgs []store.Message
	err := c.doJSON(ctx, http.MethodGet, "/messages?language="+url.QueryEscape(string(tag)), nil, &msgs)
	return msgs, err
}

func (c *APIClient) ListHistory(ctx context.Context, tag language.Tag) ([]store.HistoryEntry, error) {
	var entries []store.HistoryEntry
	err := c.doJSON(ctx, http.MethodGet, "/history?language="+url.QueryEscape(string(tag)), nil, &entries)
	return entries, err
}

func (c *APIClient) GetSettings(ctx context.Context) (store.Settings, error) {
	var st store.Settings
	err := c.doJSON(ctx, http.MethodGet, "/settings", nil, &st)
	return st, err
}

func (c *APIClient) SetLanguage(ctx context.Context, tag language.Tag) error {
	return c.doJSON(ctx, http.MethodPut, "/settings/language", map[string]string{"language": string(tag)}, nil)
}

func (c *APIClient) SetName(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodPut, "/settings/name", map[string]string{"name": name}, nil)
}

// Stats with an empty tag covers every language.
func (c *APIClient) Stats(ctx context.Context, tag language.Tag) (store.Stats, error) {
	path := "/stats"
	if tag != "" {
		path += "?language=" + url.QueryEscape(string(tag))
	}
	var st store.Stats
	err := c.doJSON(ctx, http.MethodGet, path, nil, &st)
	return st, err
}

// Speak returns MPEG audio for text.
func (c *APIClient) Speak(ctx context.Context, text string, tag language.Tag) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/speak", map[string]string{"text": text, "lang": string(tag)})
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

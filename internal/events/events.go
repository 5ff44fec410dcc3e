// Package events publishes best-effort notifications about finished chat
// turns over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectTurnCompleted = "lingo.chat.turn.completed"
	SubjectHistorySaved  = "lingo.history.saved"
)

// TurnCompleted is emitted once the assistant message of a turn is stored.
type TurnCompleted struct {
	MessageID   string    `json:"message_id"`
	Language    string    `json:"language"`
	Provider    string    `json:"provider"`
	ResponseLen int       `json:"response_len"`
	HasHistory  bool      `json:"has_history"`
	CompletedAt time.Time `json:"completed_at"`
}

// HistorySaved is emitted for every stored learning-history entry.
type HistorySaved struct {
	EntryID  string    `json:"entry_id"`
	Language string    `json:"language"`
	Category string    `json:"category"`
	Sentence string    `json:"sentence"`
	SavedAt  time.Time `json:"saved_at"`
}

type Publisher interface {
	Publish(subject string, data any) error
}

// Nop drops every event. It is used when NATS_URL is empty.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("lingo"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Connected is reported by the status endpoint.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}

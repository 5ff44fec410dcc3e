package practice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/MikeSquared-Agency/lingo/internal/chat"
	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/llm"
	"github.com/MikeSquared-Agency/lingo/internal/store"
	"github.com/MikeSquared-Agency/lingo/internal/tutor"
)

var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a reply is still in progress")
	// ErrStale means the active language changed while the request was in
	// flight and its result was dropped.
	ErrStale   = errors.New("language changed, result discarded")
	ErrNoRetry = errors.New("nothing to retry")
)

type State int

const (
	Idle State = iota
	Sending
	Streaming
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Streaming:
		return "streaming"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ChatAPI is the part of the server a conversation talks to.
type ChatAPI interface {
	ListMessages(ctx context.Context, tag language.Tag) ([]store.Message, error)
	StreamChat(ctx context.Context, req chat.Request) (io.ReadCloser, error)
}

type Entry struct {
	Role    string
	Content string
}

// View is what the terminal renders. Assistant content is already reduced
// to its display text.
type View struct {
	Language language.Tag
	State    State
	Messages []Entry
	Err      error
}

type failedOp int

const (
	noFailure failedOp = iota
	loadFailed
	submitFailed
)

// Conversation is the chat state machine for the active language:
// Idle -> Sending -> Streaming -> Idle, with Failed reachable from any step.
type Conversation struct {
	api     ChatAPI
	session *Session
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	messages []Entry
	err      error
	failed   failedOp
	onChange func(View)
}

// NewConversation wires the conversation to the session: every language
// change discards the current state and reloads history for the new tag.
func NewConversation(api ChatAPI, session *Session, logger *slog.Logger) *Conversation {
	c := &Conversation{api: api, session: session, logger: logger}
	session.Subscribe(func(tag language.Tag) {
		c.reset()
		if err := c.Load(context.Background()); err != nil && !errors.Is(err, ErrStale) {
			c.logger.Warn("history reload failed", "language", tag, "error", err)
		}
	})
	return c
}

// OnChange registers the render callback. It is called without locks held.
func (c *Conversation) OnChange(fn func(View)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Conversation) reset() {
	c.mu.Lock()
	c.state = Idle
	c.messages = nil
	c.err = nil
	c.failed = noFailure
	c.mu.Unlock()
	c.notify()
}

func (c *Conversation) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(c.View())
	}
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conversation) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.messages))
	for i, m := range c.messages {
		if m.Role == store.RoleAssistant {
			m.Content = tutor.TryExtractDisplayText(m.Content)
		}
		out[i] = m
	}
	return View{
		Language: c.session.Language(),
		State:    c.state,
		Messages: out,
		Err:      c.err,
	}
}

// Load replaces the message list with the stored history of the active
// language.
func (c *Conversation) Load(ctx context.Context) error {
	snap := c.session.Snapshot()
	msgs, err := c.api.ListMessages(ctx, snap.Tag)

	c.mu.Lock()
	if !c.session.Current(snap) {
		c.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		c.state = Failed
		c.err = err
		c.failed = loadFailed
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("load history: %w", err)
	}
	c.messages = make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		c.messages = append(c.messages, Entry{Role: m.Role, Content: m.Content})
	}
	c.state = Idle
	c.err = nil
	c.failed = noFailure
	c.mu.Unlock()
	c.notify()
	return nil
}

// Submit sends text as the next user message and consumes the streamed
// reply. It returns when the reply is complete or has failed.
func (c *Conversation) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.messages = append(c.messages, Entry{Role: store.RoleUser, Content: text})
	snap, history := c.beginLocked()
	c.mu.Unlock()

	c.notify()
	return c.stream(ctx, snap, history)
}

// Retry re-issues the fetch that put the conversation into the error state.
func (c *Conversation) Retry(ctx context.Context) error {
	c.mu.Lock()
	switch c.failed {
	case loadFailed:
		c.mu.Unlock()
		return c.Load(ctx)
	case submitFailed:
		if c.busy() {
			c.mu.Unlock()
			return ErrBusy
		}
		snap, history := c.beginLocked()
		c.mu.Unlock()
		c.notify()
		return c.stream(ctx, snap, history)
	}
	c.mu.Unlock()
	return ErrNoRetry
}

func (c *Conversation) busy() bool {
	return c.state == Sending || c.state == Streaming
}

// beginLocked enters Sending and captures what will be sent.
func (c *Conversation) beginLocked() (Snapshot, []llm.Message) {
	history := make([]llm.Message, len(c.messages))
	for i, m := range c.messages {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	c.state = Sending
	c.err = nil
	c.failed = noFailure
	return c.session.Snapshot(), history
}

// stream requests a reply to history and appends it as it arrives. The last
// history entry is the user message being answered.
func (c *Conversation) stream(ctx context.Context, snap Snapshot, history []llm.Message) error {
	body, err := c.api.StreamChat(ctx, chat.Request{Messages: history, Language: snap.Tag})
	if err != nil {
		return c.fail(snap, -1, err)
	}
	defer body.Close()

	assistant := -1
	buf := make([]byte, 4096)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			c.mu.Lock()
			if !c.session.Current(snap) {
				c.mu.Unlock()
				return ErrStale
			}
			if assistant < 0 {
				c.messages = append(c.messages, Entry{Role: store.RoleAssistant})
				assistant = len(c.messages) - 1
				c.state = Streaming
			}
			c.messages[assistant].Content += string(buf[:n])
			c.mu.Unlock()
			c.notify()
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return c.fail(snap, assistant, rerr)
		}
	}

	c.mu.Lock()
	if !c.session.Current(snap) {
		c.mu.Unlock()
		return ErrStale
	}
	c.state = Idle
	c.mu.Unlock()
	c.notify()
	return nil
}

// fail moves to the error state and drops the partial assistant entry.
func (c *Conversation) fail(snap Snapshot, assistant int, err error) error {
	c.mu.Lock()
	if !c.session.Current(snap) {
		c.mu.Unlock()
		return ErrStale
	}
	if assistant >= 0 && assistant == len(c.messages)-1 {
		c.messages = c.messages[:assistant]
	}
	c.state = Failed
	c.err = err
	c.failed = submitFailed
	c.mu.Unlock()

	c.logger.Warn("chat request failed", "language", snap.Tag, "error", err)
	c.notify()
	return fmt.Errorf("chat: %w", err)
}

package practice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
)

// Player plays MPEG audio. Starting a playback stops the current one first.
type Player interface {
	Play(ctx context.Context, audio io.Reader) error
	Stop()
}

// playback tracks the single active playback of a player.
type playback struct {
	mu  sync.Mutex
	cur *activePlayback
}

type activePlayback struct {
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
}

// begin stops whatever is playing and registers a new playback. The returned
// func must be called when playback ends; it reports whether it was stopped.
func (p *playback) begin(ctx context.Context) (context.Context, func() bool) {
	ctx, cancel := context.WithCancel(ctx)
	a := &activePlayback{cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	p.stopLocked()
	p.cur = a
	p.mu.Unlock()

	return ctx, func() bool {
		close(a.done)
		cancel()
		p.mu.Lock()
		if p.cur == a {
			p.cur = nil
		}
		p.mu.Unlock()
		return a.stopped.Load()
	}
}

func (p *playback) stopLocked() {
	if p.cur == nil {
		return
	}
	p.cur.stopped.Store(true)
	p.cur.cancel()
	<-p.cur.done
	p.cur = nil
}

func (p *playback) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

// Runner executes the player command with audio on stdin.
type Runner func(ctx context.Context, argv []string, stdin io.Reader) error

func execRunner(ctx context.Context, argv []string, stdin io.Reader) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ExecPlayer pipes audio into an external command such as
// "mpv --no-video --really-quiet -".
type ExecPlayer struct {
	argv []string
	run  Runner
	playback
}

func NewExecPlayer(command string) (*ExecPlayer, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("player command is empty")
	}
	return &ExecPlayer{argv: argv, run: execRunner}, nil
}

// Play blocks until the audio has finished or was stopped. A playback ended
// by Stop or by a newer Play returns nil.
func (p *ExecPlayer) Play(ctx context.Context, audio io.Reader) error {
	ctx, finish := p.begin(ctx)
	err := p.run(ctx, p.argv, audio)
	if stopped := finish(); stopped {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", p.argv[0], err)
	}
	return nil
}

// FilePlayer writes the audio to a file instead of playing it.
type FilePlayer struct {
	path string
	playback
}

func NewFilePlayer(path string) *FilePlayer {
	return &FilePlayer{path: path}
}

func (p *FilePlayer) Play(ctx context.Context, audio io.Reader) error {
	ctx, finish := p.begin(ctx)
	defer finish()

	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: audio}); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return f.Close()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

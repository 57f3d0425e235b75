package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Completer is one language model backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Chain tries the remote backend while the network is reachable and falls back
// to the local one.
type Chain struct {
	Remote Completer
	Local  Completer
	Online func(ctx context.Context) bool
	Logger *slog.Logger
}

var ErrNoBackend = errors.New("no language model backend produced usable output")

// Run asks each backend in turn until accept approves the output.
func (c *Chain) Run(ctx context.Context, system, prompt string, accept func(string) error) error {
	logger := c.logger()

	if c.Remote != nil && c.online(ctx) {
		raw, err := c.Remote.Complete(ctx, system, prompt)
		if err == nil {
			err = accept(raw)
		}
		if err == nil {
			return nil
		}
		logger.Warn("remote model failed, switching to local", "backend", c.Remote.Name(), "err", err)
	}

	if c.Local != nil {
		raw, err := c.Local.Complete(ctx, system, prompt)
		if err == nil {
			err = accept(raw)
		}
		if err == nil {
			return nil
		}
		logger.Warn("local model failed", "backend", c.Local.Name(), "err", err)
	}

	return ErrNoBackend
}

func (c *Chain) online(ctx context.Context) bool {
	if c.Online == nil {
		return true
	}
	return c.Online(ctx)
}

func (c *Chain) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Probe reports whether a TCP connection to addr succeeds within timeout.
func Probe(addr string, timeout time.Duration) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

type Classifier struct {
	chain *Chain
	now   func() time.Time
}

func NewClassifier(chain *Chain) *Classifier {
	return &Classifier{chain: chain, now: time.Now}
}

// Classify never fails: unusable output from every backend yields Default.
func (c *Classifier) Classify(ctx context.Context, transcript string) Result {
	if strings.TrimSpace(transcript) == "" {
		return Default()
	}

	prompt := BuildPrompt(transcript, c.now())

	var out Result
	err := c.chain.Run(ctx, classifierSystem, prompt, func(raw string) error {
		r, err := Parse(raw)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return Default()
	}

	c.chain.logger().Debug("classified", "transcript", transcript, "intent", out.Intent)
	return out
}

// Generator produces free text (subjects, descriptions, code) from the same chain.
type Generator struct {
	chain *Chain
}

func NewGenerator(chain *Chain) *Generator {
	return &Generator{chain: chain}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.chain.Run(ctx, "", prompt, func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return errors.New("empty completion")
		}
		out = raw
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

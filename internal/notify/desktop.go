package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Sender delivers one notification bubble.
type Sender func(title, message string) error

func beeepSender(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Desktop shows a desktop notification bubble.
type Desktop struct {
	app  string
	send Sender
}

func NewDesktop(app string) *Desktop {
	return &Desktop{app: app, send: beeepSender}
}

// Notify titles the bubble with summary, or with the app name when there is
// no body. It gives up waiting when ctx is done.
func (d *Desktop) Notify(ctx context.Context, summary, body string) error {
	if d == nil {
		return nil
	}
	title, message := summary, body
	if body == "" {
		title, message = d.app, summary
	}

	errc := make(chan error, 1)
	go func() { errc <- d.send(title, message) }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("desktop notification: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notifier signals the start of a listening turn. Either part may be nil.
type Notifier struct {
	Beeper  *Beeper
	Desktop *Desktop
	Logger  *slog.Logger
}

func (n *Notifier) Listening(ctx context.Context) {
	if n == nil {
		return
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := n.Desktop.Notify(ctx, "Listening...", ""); err != nil {
		logger.Debug("notify failed", "err", err)
	}
	if err := n.Beeper.Beep(ctx); err != nil {
		logger.Warn("beep failed", "err", err)
	}
}

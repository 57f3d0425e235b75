package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"voxdesk/internal/nlu"
)

type PowerControl interface {
	Lock(ctx context.Context) error
	Sleep(ctx context.Context) error
	Hibernate(ctx context.Context) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Power struct {
	ctl     PowerControl
	gate    Confirmer
	speaker Speaker
	logger  *slog.Logger
}

// NewPower returns the power handler. Every action goes through gate; a nil
// gate cancels everything.
func NewPower(ctl PowerControl, gate Confirmer, speaker Speaker, logger *slog.Logger) *Power {
	if logger == nil {
		logger = slog.Default()
	}
	return &Power{ctl: ctl, gate: gate, speaker: speaker, logger: logger}
}

func (p *Power) Route() Route {
	return Route{
		Icon: "⚡",
		ActionIcons: map[string]string{
			"lock":      "🔒",
			"sleep":     "💤",
			"hibernate": "🛌",
		},
		Handle: p.Handle,
	}
}

func (p *Power) Handle(ctx context.Context, slots nlu.Slots) string {
	action := slots.Action("lock")

	var (
		run  func(context.Context) error
		done string
	)
	switch action {
	case "lock":
		run, done = p.ctl.Lock, "Screen locked."
	case "sleep":
		run, done = p.ctl.Sleep, "System going to sleep."
	case "hibernate":
		run, done = p.ctl.Hibernate, "System hibernating."
	default:
		return failf("Unknown power action. Supported: lock, sleep, hibernate.")
	}

	prompt := fmt.Sprintf("Do you want to %s the system? Say yes to confirm.", action)
	if p.gate == nil || !p.gate.Confirm(ctx, prompt) {
		p.say(ctx, "Cancelled.")
		p.logger.Info("power action cancelled", "action", action)
		return failf("Action cancelled.")
	}

	p.say(ctx, "Confirmed. Executing now.")

	if err := run(ctx); err != nil {
		return warnf("%s failed: %v", capitalize(action), err)
	}
	return done
}

func (p *Power) say(ctx context.Context, text string) {
	if p.speaker == nil {
		return
	}
	if err := p.speaker.Speak(ctx, text); err != nil {
		p.logger.Warn("speak failed", "err", err)
	}
}

var errUnsupported = errors.New("not supported on " + runtime.GOOS)

// SystemPower issues the platform's lock and suspend commands.
type SystemPower struct {
	run  Runner
	goos string
}

func NewSystemPower(run Runner) *SystemPower {
	return &SystemPower{run: run, goos: runtime.GOOS}
}

func (s *SystemPower) Lock(ctx context.Context) error {
	switch s.goos {
	case "linux":
		return s.exec(ctx, "loginctl", "lock-session")
	case "darwin":
		return s.exec(ctx, "pmset", "displaysleepnow")
	case "windows":
		return s.exec(ctx, "rundll32.exe", "user32.dll,LockWorkStation")
	}
	return errUnsupported
}

func (s *SystemPower) Sleep(ctx context.Context) error {
	switch s.goos {
	case "linux":
		return s.exec(ctx, "systemctl", "suspend")
	case "darwin":
		return s.exec(ctx, "pmset", "sleepnow")
	case "windows":
		return s.exec(ctx, "rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0")
	}
	return errUnsupported
}

func (s *SystemPower) Hibernate(ctx context.Context) error {
	switch s.goos {
	case "linux":
		return s.exec(ctx, "systemctl", "hibernate")
	case "windows":
		return s.exec(ctx, "shutdown", "/h")
	}
	return errUnsupported
}

func (s *SystemPower) exec(ctx context.Context, name string, args ...string) error {
	_, err := s.run(ctx, name, args...)
	return err
}

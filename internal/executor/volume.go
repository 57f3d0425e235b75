package executor

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"voxdesk/internal/nlu"
	"voxdesk/internal/pactl"
)

const volumeStep = 20

type VolumeControl interface {
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, percent int) error
	SetMute(ctx context.Context, mute bool) error
}

// DefaultVolumeControl picks the mixer for the running OS, nil when none.
func DefaultVolumeControl(run Runner) VolumeControl {
	switch runtime.GOOS {
	case "linux":
		return pactl.New(nil)
	case "darwin":
		return &AppleScriptVolume{run: run}
	default:
		return nil
	}
}

type Volume struct {
	ctl VolumeControl
}

func NewVolume(ctl VolumeControl) *Volume {
	return &Volume{ctl: ctl}
}

func (v *Volume) Route() Route {
	return Route{
		Icon: "🔊",
		ActionIcons: map[string]string{
			"mute": "🔇",
		},
		Handle: v.Handle,
	}
}

func (v *Volume) Handle(ctx context.Context, slots nlu.Slots) string {
	if v.ctl == nil {
		return warnf("Volume control is not available on this system.")
	}

	action := slots.Action("")

	switch action {
	case "mute", "silence":
		if err := v.ctl.SetMute(ctx, true); err != nil {
			return warnf("Mute failed: %v", err)
		}
		return "System muted."
	case "unmute":
		if err := v.ctl.SetMute(ctx, false); err != nil {
			return warnf("Unmute failed: %v", err)
		}
		return "System unmuted."
	}

	target, ok := v.target(ctx, action, slots)
	if !ok {
		return failf("Unknown volume action: %q", action)
	}

	target = clampPercent(target)
	if err := v.ctl.SetVolume(ctx, target); err != nil {
		return warnf("Setting volume failed: %v", err)
	}
	return fmt.Sprintf("Volume set to %d%%", target)
}

func (v *Volume) target(ctx context.Context, action string, slots nlu.Slots) (int, bool) {
	switch action {
	case "full", "max", "maximum":
		return 100, true
	case "increase", "up", "decrease", "down":
		step := volumeStep
		if n, ok := slots.Int("step"); ok {
			step = n
		} else if n, ok := slots.Int("amount"); ok {
			step = n
		}
		if step < 0 {
			step = -step
		}

		current, err := v.ctl.Volume(ctx)
		if err != nil {
			current = 50
		}
		if action == "decrease" || action == "down" {
			return current - step, true
		}
		// Int saturates at int32, so the sum cannot overflow.
		return current + step, true
	}

	for _, key := range []string{"percent", "value", "level", "amount"} {
		if n, ok := slots.Int(key); ok {
			return n, true
		}
	}
	return 0, false
}

var osaNumber = regexp.MustCompile(`\d+`)

// AppleScriptVolume drives the macOS output volume through osascript.
type AppleScriptVolume struct {
	run Runner
}

func (a *AppleScriptVolume) Volume(ctx context.Context) (int, error) {
	out, err := a.run(ctx, "osascript", "-e", "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	m := osaNumber.FindString(string(out))
	if m == "" {
		return 0, fmt.Errorf("unexpected osascript output %q", strings.TrimSpace(string(out)))
	}
	return strconv.Atoi(m)
}

func (a *AppleScriptVolume) SetVolume(ctx context.Context, percent int) error {
	_, err := a.run(ctx, "osascript", "-e", fmt.Sprintf("set volume output volume %d", clampPercent(percent)))
	return err
}

func (a *AppleScriptVolume) SetMute(ctx context.Context, mute bool) error {
	_, err := a.run(ctx, "osascript", "-e", fmt.Sprintf("set volume output muted %t", mute))
	return err
}

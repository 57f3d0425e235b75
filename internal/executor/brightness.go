package executor

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"voxdesk/internal/nlu"
)

const (
	brightnessStep    = 10
	brightnessUnknown = 50
)

type BrightnessControl interface {
	Brightness(ctx context.Context) (int, error)
	SetBrightness(ctx context.Context, percent int) error
}

func DefaultBrightnessControl(run Runner) BrightnessControl {
	switch runtime.GOOS {
	case "linux":
		return &Brightnessctl{run: run}
	case "windows":
		return &WMIBrightness{run: run}
	default:
		return nil
	}
}

type Brightness struct {
	ctl BrightnessControl
}

func NewBrightness(ctl BrightnessControl) *Brightness {
	return &Brightness{ctl: ctl}
}

func (b *Brightness) Route() Route {
	return Route{Icon: "💡", Handle: b.Handle}
}

func (b *Brightness) Handle(ctx context.Context, slots nlu.Slots) string {
	if b.ctl == nil {
		return warnf("Brightness control is not available on this system.")
	}

	action := slots.Action("")

	var target int
	switch action {
	case "increase", "up", "decrease", "down":
		step := brightnessStep
		if n, ok := slots.Int("step"); ok {
			step = n
		}
		if step < 0 {
			step = -step
		}

		current, err := b.ctl.Brightness(ctx)
		if err != nil {
			current = brightnessUnknown
		}
		if action == "increase" || action == "up" {
			target = current + step
		} else {
			target = current - step
		}
	case "set":
		if !slots.Has("value", "percent", "level") {
			return failf("No brightness value provided.")
		}
		n, ok := firstInt(slots, "value", "percent", "level")
		if !ok {
			return failf("Invalid brightness value.")
		}
		target = n
	default:
		return failf("Unknown brightness action.")
	}

	target = clampPercent(target)
	if err := b.ctl.SetBrightness(ctx, target); err != nil {
		return warnf("Failed to set brightness: %v", err)
	}
	return fmt.Sprintf("Brightness set to %d%%", target)
}

func firstInt(slots nlu.Slots, keys ...string) (int, bool) {
	for _, k := range keys {
		if n, ok := slots.Int(k); ok {
			return n, true
		}
	}
	return 0, false
}

// Brightnessctl reads and writes the backlight through brightnessctl.
type Brightnessctl struct {
	run Runner
}

// Brightness parses the machine-readable line
// "intel_backlight,backlight,48000,50%,96000".
func (c *Brightnessctl) Brightness(ctx context.Context) (int, error) {
	out, err := c.run(ctx, "brightnessctl", "-m", "info")
	if err != nil {
		return 0, err
	}
	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) < 4 {
		return 0, fmt.Errorf("unexpected brightnessctl output %q", strings.TrimSpace(string(out)))
	}
	return strconv.Atoi(strings.TrimSuffix(fields[3], "%"))
}

func (c *Brightnessctl) SetBrightness(ctx context.Context, percent int) error {
	_, err := c.run(ctx, "brightnessctl", "set", fmt.Sprintf("%d%%", clampPercent(percent)))
	return err
}

// WMIBrightness uses the WmiMonitorBrightness classes through PowerShell.
type WMIBrightness struct {
	run Runner
}

func (w *WMIBrightness) Brightness(ctx context.Context) (int, error) {
	out, err := w.run(ctx, "powershell", "-NoProfile", "-Command",
		"(Get-CimInstance -Namespace root/WMI -ClassName WmiMonitorBrightness).CurrentBrightness")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(out)))
}

func (w *WMIBrightness) SetBrightness(ctx context.Context, percent int) error {
	script := fmt.Sprintf("(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(0,%d)", clampPercent(percent))
	_, err := w.run(ctx, "powershell", "-NoProfile", "-Command", script)
	return err
}

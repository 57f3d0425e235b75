package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"voxdesk/internal/nlu"
)

var ErrNoBattery = errors.New("no battery found")

type Usage struct {
	Used    uint64
	Total   uint64
	Percent float64
}

type BatteryStatus struct {
	Percent  float64
	Charging bool
}

type SystemStats interface {
	CPU(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (Usage, error)
	Disk(ctx context.Context) (Usage, error)
	Battery(ctx context.Context) (BatteryStatus, error)
	Platform(ctx context.Context) (string, error)
}

type SystemMonitor struct {
	stats SystemStats
}

func NewSystemMonitor(stats SystemStats) *SystemMonitor {
	return &SystemMonitor{stats: stats}
}

func (s *SystemMonitor) Route() Route {
	return Route{
		Icon: "📊",
		ActionIcons: map[string]string{
			"cpu":     "🖥️",
			"memory":  "🧠",
			"disk":    "💾",
			"battery": "🔋",
		},
		Handle: s.Handle,
	}
}

func (s *SystemMonitor) Handle(ctx context.Context, slots nlu.Slots) string {
	switch slots.Action("summary") {
	case "cpu":
		return s.cpu(ctx)
	case "memory", "ram":
		return s.memory(ctx)
	case "disk", "storage":
		return s.disk(ctx)
	case "battery":
		return s.battery(ctx)
	default:
		return s.summary(ctx)
	}
}

func (s *SystemMonitor) cpu(ctx context.Context) string {
	pct, err := s.stats.CPU(ctx)
	if err != nil {
		return warnf("CPU usage unavailable: %v", err)
	}
	return fmt.Sprintf("CPU Usage: %.1f%%", pct)
}

func (s *SystemMonitor) memory(ctx context.Context) string {
	u, err := s.stats.Memory(ctx)
	if err != nil {
		return warnf("Memory usage unavailable: %v", err)
	}
	return fmt.Sprintf("RAM Usage: %s / %s (%.1f%%)", gib(u.Used), gib(u.Total), u.Percent)
}

func (s *SystemMonitor) disk(ctx context.Context) string {
	u, err := s.stats.Disk(ctx)
	if err != nil {
		return warnf("Disk usage unavailable: %v", err)
	}
	return fmt.Sprintf("Disk Usage: %s / %s (%.1f%%)", gib(u.Used), gib(u.Total), u.Percent)
}

func (s *SystemMonitor) battery(ctx context.Context) string {
	b, err := s.stats.Battery(ctx)
	if err != nil {
		return "Battery information not available."
	}
	state := "Not Charging"
	if b.Charging {
		state = "Charging"
	}
	return fmt.Sprintf("Battery: %.0f%% (%s)", b.Percent, state)
}

func (s *SystemMonitor) summary(ctx context.Context) string {
	platform, err := s.stats.Platform(ctx)
	if err != nil {
		platform = "unknown"
	}
	return strings.Join([]string{
		"System: " + platform,
		s.cpu(ctx),
		s.memory(ctx),
		s.disk(ctx),
		s.battery(ctx),
	}, "\n")
}

func gib(b uint64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/(1<<30))
}

// HostStats reads live figures through gopsutil and the battery package.
type HostStats struct {
	DiskPath string
	Interval time.Duration
}

func (h HostStats) CPU(ctx context.Context) (float64, error) {
	interval := h.Interval
	if interval == 0 {
		interval = time.Second
	}
	pcts, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pcts) == 0 {
		return 0, errors.New("cpu percent: no samples")
	}
	return pcts[0], nil
}

func (h HostStats) Memory(ctx context.Context) (Usage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Usage{}, fmt.Errorf("virtual memory: %w", err)
	}
	return Usage{Used: vm.Used, Total: vm.Total, Percent: vm.UsedPercent}, nil
}

func (h HostStats) Disk(ctx context.Context) (Usage, error) {
	path := h.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Usage{}, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return Usage{Used: du.Used, Total: du.Total, Percent: du.UsedPercent}, nil
}

func (h HostStats) Battery(context.Context) (BatteryStatus, error) {
	batteries, err := battery.GetAll()
	for _, b := range batteries {
		if b == nil || b.Full <= 0 {
			continue
		}
		state := b.State.String()
		return BatteryStatus{
			Percent:  100 * b.Current / b.Full,
			Charging: state == "Charging" || state == "Full",
		}, nil
	}
	if err != nil {
		return BatteryStatus{}, fmt.Errorf("battery: %w", err)
	}
	return BatteryStatus{}, ErrNoBattery
}

func (h HostStats) Platform(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("host info: %w", err)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", info.OS, info.Platform, info.KernelVersion)), nil
}

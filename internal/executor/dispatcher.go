// Package executor maps classified intents onto desktop actions.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"voxdesk/internal/nlu"
)

// Marker glyphs prefixed to failure text. Dispatch lifts them into Reply.Icon.
const (
	MarkError = "❌"
	MarkWarn  = "⚠️"
)

const (
	fallbackIcon = "❓"
	fallbackText = "🤔 I didn't understand that command. Try: 🔊 volume, 🌤️ weather, 🎵 music, or 💻 system commands."
	defaultIcon  = "⚡"
)

// Handler runs one intent. It never returns an error: failures are reported
// as text starting with MarkError or MarkWarn.
type Handler func(ctx context.Context, slots nlu.Slots) string

// Route binds a handler to its display icon. ActionIcons overrides Icon for a
// specific "action" slot value.
type Route struct {
	Icon        string
	ActionIcons map[string]string
	Handle      Handler
}

type Reply struct {
	Intent string `json:"intent"`
	Icon   string `json:"icon"`
	Text   string `json:"text"`
}

func (r Reply) String() string {
	if r.Icon == "" {
		return r.Text
	}
	return r.Icon + " " + r.Text
}

// Failed reports whether the handler produced an error marker.
func (r Reply) Failed() bool {
	return r.Icon == MarkError || r.Icon == MarkWarn
}

type Dispatcher struct {
	routes map[string]Route
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		routes: make(map[string]Route),
		logger: logger,
	}
}

func (d *Dispatcher) Register(intent string, r Route) {
	d.routes[intent] = r
}

func (d *Dispatcher) Intents() []string {
	out := make([]string, 0, len(d.routes))
	for k := range d.routes {
		out = append(out, k)
	}
	return out
}

// Dispatch runs the handler registered for res.Intent. Unknown intents get the
// fallback reply; a panicking handler is reported as a warning.
func (d *Dispatcher) Dispatch(ctx context.Context, res nlu.Result) Reply {
	route, ok := d.routes[res.Intent]
	if !ok || route.Handle == nil {
		d.logger.Info("unknown intent", "intent", res.Intent)
		return Reply{Intent: res.Intent, Icon: fallbackIcon, Text: fallbackText}
	}

	slots := res.Slots
	if slots == nil {
		slots = nlu.Slots{}
	}

	text := d.run(ctx, res.Intent, route.Handle, slots)

	icon := route.Icon
	if ai, ok := route.ActionIcons[slots.Action("")]; ok {
		icon = ai
	}
	if icon == "" {
		icon = defaultIcon
	}

	for _, mark := range []string{MarkError, MarkWarn} {
		if strings.HasPrefix(text, mark) {
			icon = mark
			text = strings.TrimSpace(strings.TrimPrefix(text, mark))
			break
		}
	}

	reply := Reply{Intent: res.Intent, Icon: icon, Text: text}
	d.logger.Info("action", "intent", res.Intent, "icon", icon, "result", text)
	return reply
}

func (d *Dispatcher) run(ctx context.Context, intent string, h Handler, slots nlu.Slots) (text string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", "intent", intent, "panic", r)
			text = fmt.Sprintf("%s %s failed: %v", MarkWarn, intent, r)
		}
	}()
	return h(ctx, slots)
}

type transcriptKey struct{}

// WithTranscript attaches the user utterance for handlers that use it as
// generation context.
func WithTranscript(ctx context.Context, transcript string) context.Context {
	return context.WithValue(ctx, transcriptKey{}, transcript)
}

func Transcript(ctx context.Context) string {
	s, _ := ctx.Value(transcriptKey{}).(string)
	return s
}

func failf(format string, args ...any) string {
	return MarkError + " " + fmt.Sprintf(format, args...)
}

func warnf(format string, args ...any) string {
	return MarkWarn + " " + fmt.Sprintf(format, args...)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

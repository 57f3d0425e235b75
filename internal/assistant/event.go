package assistant

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindUser       Kind = "user"
	KindTranscript Kind = "transcript"
	KindIntent     Kind = "intent"
	KindAction     Kind = "action"
	KindReply      Kind = "reply"
	KindStatus     Kind = "status"
	KindError      Kind = "error"
)

type Event struct {
	Time   time.Time `json:"time"`
	Kind   Kind      `json:"kind"`
	Text   string    `json:"text"`
	Intent string    `json:"intent,omitempty"`
	Icon   string    `json:"icon,omitempty"`
}

// Observer receives every event the assistant produces. Observe is called
// from the worker goroutine and must not block for long.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// LogObserver writes events to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (l LogObserver) Observe(e Event) {
	switch e.Kind {
	case KindError:
		l.Logger.Error(e.Text)
	case KindReply:
		l.Logger.Info("reply", "intent", e.Intent, "icon", e.Icon, "text", e.Text)
	case KindIntent:
		l.Logger.Info("intent", "intent", e.Intent, "result", e.Text)
	case KindUser, KindTranscript:
		l.Logger.Info(string(e.Kind), "text", e.Text)
	default:
		l.Logger.Debug(string(e.Kind), "text", e.Text)
	}
}

// ChatView renders events as a chat transcript.
type ChatView struct {
	w  io.Writer
	mu sync.Mutex
}

func NewChatView(w io.Writer) *ChatView {
	return &ChatView{w: w}
}

func (c *ChatView) Observe(e Event) {
	ts := e.Time.Format("15:04")

	var line string
	switch e.Kind {
	case KindUser:
		line = fmt.Sprintf("[%s] 🧑 You: %s", ts, e.Text)
	case KindTranscript:
		line = fmt.Sprintf("[%s] 🎤 You said: %s", ts, e.Text)
	case KindReply:
		text := e.Text
		if e.Icon != "" {
			text = e.Icon + " " + text
		}
		line = fmt.Sprintf("[%s] 🤖 Assistant: %s", ts, text)
	case KindAction:
		line = fmt.Sprintf("[%s] ⚙️ %s", ts, e.Text)
	case KindStatus:
		line = fmt.Sprintf("[%s] ℹ️ %s", ts, e.Text)
	case KindError:
		line = fmt.Sprintf("[%s] ⚠️ %s", ts, e.Text)
	default:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

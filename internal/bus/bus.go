// Package bus connects the assistant to a websocket message hub. Assistant
// events are published to the hub and commands addressed to the assistant
// are answered on it.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxdesk/internal/assistant"
)

const (
	Name         = "voxdesk"
	writeTimeout = 5 * time.Second
)

const (
	KindCommand = "command"
	KindReply   = "reply"
)

var ErrMalformed = errors.New("malformed bus message")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

type Bus struct {
	url    string
	conn   *websocket.Conn
	mu     sync.Mutex
	logger *slog.Logger

	// Reconnect is the pause between redial attempts after the hub closes
	// the connection. Zero makes Serve return instead.
	Reconnect time.Duration
}

func Dial(ctx context.Context, url string, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus %s: %w", url, err)
	}
	logger.Info("connected to bus", "url", url)
	return &Bus{url: url, conn: conn, logger: logger}, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return b.conn.Close()
}

func (b *Bus) current() *websocket.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

// redial blocks until the hub accepts a new connection or ctx is done.
func (b *Bus) redial(ctx context.Context) error {
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
		if err == nil {
			b.mu.Lock()
			b.conn = conn
			b.mu.Unlock()
			return nil
		}
		b.logger.Debug("bus redial failed", "url", b.url, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Reconnect):
		}
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure)
}

func (b *Bus) Read() (*Message, error) {
	_, data, err := b.current().ReadMessage()
	if err != nil {
		return nil, err
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &m, nil
}

func (b *Bus) Write(m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// Observe publishes assistant events to every hub subscriber.
func (b *Bus) Observe(e assistant.Event) {
	content := e.Text
	if e.Kind == assistant.KindReply && e.Icon != "" {
		content = e.Icon + " " + e.Text
	}
	err := b.Write(&Message{From: Name, To: "*", Kind: string(e.Kind), Content: content})
	if err != nil {
		b.logger.Debug("bus publish failed", "kind", e.Kind, "err", err)
	}
}

// Handler answers one command. Audio carries a recorded clip when the sender
// spoke instead of typing.
type Handler func(ctx context.Context, msg *Message) (string, error)

// Serve answers commands addressed to the assistant until ctx is done. A
// connection closed by the hub is redialed when Reconnect is set; any other
// read failure ends Serve.
func (b *Bus) Serve(ctx context.Context, h Handler) error {
	go func() {
		<-ctx.Done()
		b.current().Close()
	}()

	for {
		msg, err := b.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrMalformed) {
				b.logger.Warn("bad bus message", "err", err)
				continue
			}
			if b.Reconnect > 0 && isClosed(err) {
				b.logger.Warn("bus closed, reconnecting", "url", b.url)
				if err := b.redial(ctx); err != nil {
					return nil
				}
				b.logger.Info("bus reconnected", "url", b.url)
				continue
			}
			return fmt.Errorf("bus read: %w", err)
		}

		if msg.Kind != KindCommand || (msg.To != Name && msg.To != "") {
			continue
		}

		b.logger.Info("bus command", "from", msg.From, "audio", len(msg.Audio) > 0)

		text, err := h(ctx, msg)
		if err != nil {
			text = "⚠️ " + err.Error()
		}
		if err := b.Write(&Message{From: Name, To: msg.From, Kind: KindReply, Content: text}); err != nil {
			b.logger.Error("failed to send response", "err", err)
		}
	}
}

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxdesk/internal/assistant"
)

// hub upgrades one connection and exposes it to the test.
func hub(t *testing.T) (string, <-chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- c
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func readMessage(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m Message
	if err := c.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestObservePublishes(t *testing.T) {
	url, conns := hub(t)
	b, err := Dial(context.Background(), url, quiet())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	peer := <-conns

	b.Observe(assistant.Event{Kind: assistant.KindReply, Icon: "🔊", Text: "Volume set to 40%"})

	m := readMessage(t, peer)
	if m.From != Name || m.Kind != "reply" || m.Content != "🔊 Volume set to 40%" {
		t.Errorf("got %+v", m)
	}
}

func TestServeAnswersCommands(t *testing.T) {
	url, conns := hub(t)
	b, err := Dial(context.Background(), url, quiet())
	if err != nil {
		t.Fatal(err)
	}
	peer := <-conns

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- b.Serve(ctx, func(_ context.Context, msg *Message) (string, error) {
			if len(msg.Audio) > 0 {
				return "", errors.New("audio not supported")
			}
			return "echo: " + msg.Content, nil
		})
	}()

	send := func(m Message) {
		data, _ := json.Marshal(m)
		peer.WriteMessage(websocket.TextMessage, data)
	}

	send(Message{From: "phone", To: "someone-else", Kind: KindCommand, Content: "ignored"})
	send(Message{From: "phone", Kind: "chat", Content: "ignored"})
	send(Message{From: "phone", To: Name, Kind: KindCommand, Content: "volume up"})

	m := readMessage(t, peer)
	if m.To != "phone" || m.Kind != KindReply || m.Content != "echo: volume up" {
		t.Errorf("got %+v", m)
	}

	send(Message{From: "phone", Kind: KindCommand, Audio: []byte{1, 2}})
	m = readMessage(t, peer)
	if m.Content != "⚠️ audio not supported" {
		t.Errorf("got %+v", m)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestDial_Unreachable(t *testing.T) {
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", quiet()); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestServeReconnectsAfterClose(t *testing.T) {
	url, conns := hub(t)
	b, err := Dial(context.Background(), url, quiet())
	if err != nil {
		t.Fatal(err)
	}
	b.Reconnect = 20 * time.Millisecond
	first := <-conns

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Serve(ctx, func(_ context.Context, msg *Message) (string, error) {
		return "echo: " + msg.Content, nil
	})

	first.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
	first.Close()

	var second *websocket.Conn
	select {
	case second = <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not reconnect")
	}

	data, _ := json.Marshal(Message{From: "phone", To: Name, Kind: KindCommand, Content: "ping"})
	second.WriteMessage(websocket.TextMessage, data)

	if m := readMessage(t, second); m.Content != "echo: ping" {
		t.Errorf("got %+v", m)
	}
}

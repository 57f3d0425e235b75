package ipc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// socketPath stays short: unix socket paths are limited to ~100 bytes.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "vx")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func serve(t *testing.T, path string, h Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := NewServer(path, h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { done <- srv.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if conn, err := net.Dial("unix", path); err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
}

func echo(_ context.Context, req Request) Response {
	switch req.Cmd {
	case CmdText:
		return Response{OK: true, Text: "🔊 " + req.Text}
	case CmdStatus:
		return Response{OK: true, Text: "muted=false"}
	}
	return Errorf("unknown command %q", req.Cmd)
}

func TestRoundTrip(t *testing.T) {
	path := socketPath(t)
	serve(t, path, echo)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := Send(ctx, path, Request{Cmd: CmdText, Text: "volume up"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Text != "🔊 volume up" {
		t.Errorf("got %+v", resp)
	}

	resp, err = Send(ctx, path, Request{Cmd: "dance"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.OK || resp.Error != `unknown command "dance"` {
		t.Errorf("got %+v", resp)
	}
}

func TestMalformedRequest(t *testing.T) {
	path := socketPath(t)
	serve(t, path, echo)

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.Write([]byte("{not json\n"))

	data, _ := io.ReadAll(conn)
	if len(data) == 0 || data[0] != '{' {
		t.Errorf("got %q", data)
	}
}

func TestServeReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	os.WriteFile(path, []byte("stale"), 0o600)

	serve(t, path, echo)

	resp, err := Send(context.Background(), path, Request{Cmd: CmdStatus})
	if err != nil || !resp.OK {
		t.Fatalf("got %+v, %v", resp, err)
	}
}

func TestSend_NoDaemon(t *testing.T) {
	if _, err := Send(context.Background(), socketPath(t), Request{Cmd: CmdStatus}); err == nil {
		t.Fatal("expected connection error")
	}
}

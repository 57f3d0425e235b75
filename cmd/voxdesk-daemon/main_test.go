package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxdesk/internal/config"
)

func TestRun_ReleasesResourcesWhenIPCFails(t *testing.T) {
	closed := make(chan error, 1)
	up := websocket.Upgrader{}
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		c.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				closed <- err
				return
			}
		}
	}))
	defer hub.Close()

	dir := t.TempDir()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Socket = filepath.Join(dir, "missing", "voxdesk.sock")
	cfg.Calendar.Credentials = filepath.Join(dir, "credentials.json")
	cfg.Bus.URL = "ws" + strings.TrimPrefix(hub.URL, "http")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err = run(cfg, logger, false)
	if err == nil || !strings.Contains(err.Error(), "ipc server") {
		t.Fatalf("got %v, want ipc server error", err)
	}

	select {
	case err := <-closed:
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.Errorf("bus was not closed cleanly: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("bus connection left open")
	}
}

// Package ipc is the JSON-over-unix-socket control channel between the
// daemon and its front-ends. Each connection carries one request and one
// response.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const (
	CmdTrigger = "trigger"
	CmdText    = "text"
	CmdListen  = "listen"
	CmdMute    = "mute"
	CmdUnmute  = "unmute"
	CmdStatus  = "status"
)

const readTimeout = 5 * time.Second

type Request struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func Errorf(format string, args ...any) Response {
	return Response{Error: fmt.Sprintf(format, args...)}
}

type Handler func(ctx context.Context, req Request) Response

type Server struct {
	path    string
	handler Handler
	logger  *slog.Logger
}

func NewServer(path string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{path: path, handler: handler, logger: logger}
}

// Serve accepts connections until ctx is done and waits for in-flight
// requests before returning.
func (s *Server) Serve(ctx context.Context) error {
	os.Remove(s.path)

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.path, err)
	}
	defer os.Remove(s.path)

	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.logger.Info("control socket ready", "path", s.path)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.logger.Debug("bad request", "err", err)
		json.NewEncoder(conn).Encode(Errorf("malformed request: %v", err))
		return
	}

	s.logger.Debug("request", "cmd", req.Cmd)
	resp := s.handler(ctx, req)

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("write response", "cmd", req.Cmd, "err", err)
	}
}

// Send delivers req to the daemon listening on path and returns its answer.
func Send(ctx context.Context, path string, req Request) (Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, fmt.Errorf("connect %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeVolume struct {
	level   int
	readErr error
	setErr  error
	muted   *bool
	sets    []int
}

func (f *fakeVolume) Volume(context.Context) (int, error) { return f.level, f.readErr }

func (f *fakeVolume) SetVolume(_ context.Context, p int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, p)
	f.level = p
	return nil
}

func (f *fakeVolume) SetMute(_ context.Context, m bool) error {
	f.muted = &m
	return nil
}

type fakeBrightness struct {
	level   int
	readErr error
	sets    []int
}

func (f *fakeBrightness) Brightness(context.Context) (int, error) { return f.level, f.readErr }

func (f *fakeBrightness) SetBrightness(_ context.Context, p int) error {
	f.sets = append(f.sets, p)
	return nil
}

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

var errGenDown = errors.New("no backend")

type fakeSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, text)
	return nil
}

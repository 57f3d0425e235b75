// Package notify gives audible and visual cues that the assistant is
// listening.
package notify

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Beeper plays a short mp3 cue through the default output device.
type Beeper struct {
	path string

	once    sync.Once
	rate    beep.SampleRate
	initErr error
	mu      sync.Mutex
}

// NewBeeper returns a Beeper for the mp3 at path. An empty path disables it.
func NewBeeper(path string) *Beeper {
	return &Beeper{path: path}
}

func (b *Beeper) Beep(ctx context.Context) error {
	if b == nil || b.path == "" {
		return nil
	}

	f, err := os.Open(b.path)
	if err != nil {
		return fmt.Errorf("open beep: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode beep: %w", err)
	}
	defer streamer.Close()

	// The speaker can only be initialized once per process.
	b.once.Do(func() {
		b.rate = format.SampleRate
		b.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if b.initErr != nil {
		return fmt.Errorf("init speaker: %w", b.initErr)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var s beep.Streamer = streamer
	if format.SampleRate != b.rate {
		s = beep.Resample(4, format.SampleRate, b.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

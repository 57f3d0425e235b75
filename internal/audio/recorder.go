//go:build !noaudio

package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Recorder reads mono float samples from the default input device. Calls are
// serialized; portaudio streams are not shared.
type Recorder struct {
	sampleRate  int
	maxDuration time.Duration
	mu          sync.Mutex
}

func NewRecorder(sampleRate int, maxDuration time.Duration) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if maxDuration <= 0 {
		maxDuration = 10 * time.Second
	}
	return &Recorder{sampleRate: sampleRate, maxDuration: maxDuration}
}

func (r *Recorder) SampleRate() int { return r.sampleRate }

func (r *Recorder) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	return nil
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto records one utterance, stopping after trailing silence or the
// configured maximum duration.
func (r *Recorder) RecordAuto(ctx context.Context) ([]float32, error) {
	ep := NewEndpointer()
	out := make([]float32, 0, r.sampleRate*3)

	err := r.capture(ctx, r.maxDuration, func(frame []float32) bool {
		keep, done := ep.Push(frame)
		if keep {
			out = append(out, frame...)
		}
		return !done
	})
	if err != nil {
		return nil, err
	}
	if !ep.Heard() {
		return nil, ErrNoAudio
	}
	return out, nil
}

// RecordFor records exactly d of audio, or less if ctx ends first.
func (r *Recorder) RecordFor(ctx context.Context, d time.Duration) ([]float32, error) {
	out := make([]float32, 0, int(float64(r.sampleRate)*d.Seconds()))

	err := r.capture(ctx, d, func(frame []float32) bool {
		out = append(out, frame...)
		return true
	})
	if err != nil && len(out) == 0 {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

// capture feeds frames to fn until it returns false, limit elapses or ctx is
// done.
func (r *Recorder) capture(ctx context.Context, limit time.Duration, fn func([]float32) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]float32, frameSize(r.sampleRate))

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	frames := int(limit / frameDuration)
	for range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stream.Read(); err != nil {
			return fmt.Errorf("read input stream: %w", err)
		}
		if !fn(buf) {
			return nil
		}
	}
	return nil
}

//go:build noaudio

package audio

import (
	"context"
	"errors"
	"time"
)

var errNoBackend = errors.New("audio capture not compiled in (built with -tags noaudio)")

type Recorder struct {
	sampleRate int
}

func NewRecorder(sampleRate int, _ time.Duration) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

func (r *Recorder) SampleRate() int { return r.sampleRate }

func (r *Recorder) Init() error { return errNoBackend }

func (r *Recorder) Close() {}

func (r *Recorder) RecordAuto(context.Context) ([]float32, error) {
	return nil, errNoBackend
}

func (r *Recorder) RecordFor(context.Context, time.Duration) ([]float32, error) {
	return nil, errNoBackend
}

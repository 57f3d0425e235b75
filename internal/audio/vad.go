// Package audio captures microphone input for the assistant.
package audio

import (
	"errors"
	"math"
	"time"
)

const (
	frameDuration    = 20 * time.Millisecond
	silenceThreshRMS = 0.015
	trailingSilence  = 600 * time.Millisecond
)

var ErrNoAudio = errors.New("no audio recorded")

// Endpointer decides when an utterance is over: recording starts at the first
// loud frame and stops after trailingSilence of quiet.
type Endpointer struct {
	Threshold    float64
	SilentFrames int

	speaking bool
	quiet    int
}

func NewEndpointer() *Endpointer {
	return &Endpointer{
		Threshold:    silenceThreshRMS,
		SilentFrames: int(trailingSilence / frameDuration),
	}
}

// Push reports whether frame belongs to the utterance and whether the
// utterance has ended.
func (e *Endpointer) Push(frame []float32) (keep, done bool) {
	if FrameRMS(frame) > e.Threshold {
		e.speaking = true
		e.quiet = 0
		return true, false
	}
	if !e.speaking {
		return false, false
	}
	e.quiet++
	if e.quiet >= e.SilentFrames {
		return false, true
	}
	return true, false
}

// Heard reports whether any speech was detected.
func (e *Endpointer) Heard() bool { return e.speaking }

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s / float64(len(f)))
}

func frameSize(sampleRate int) int {
	return int(int64(sampleRate) * int64(frameDuration) / int64(time.Second))
}

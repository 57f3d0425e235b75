// Package voice turns microphone or file audio into transcripts.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"voxdesk/pkg/audioconv"
	"voxdesk/pkg/stt"
)

type Recorder interface {
	SampleRate() int
	RecordAuto(ctx context.Context) ([]float32, error)
	RecordFor(ctx context.Context, d time.Duration) ([]float32, error)
}

// Ear records a clip, stores it as a temporary WAV for whisper and removes the
// WAV and the transcript whisper writes next to it.
type Ear struct {
	rec     Recorder
	stt     stt.Transcriber
	tempDir string
	logger  *slog.Logger
}

func NewEar(rec Recorder, tr stt.Transcriber, tempDir string, logger *slog.Logger) *Ear {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ear{rec: rec, stt: tr, tempDir: tempDir, logger: logger}
}

// Listen records one utterance ended by silence.
func (e *Ear) Listen(ctx context.Context) (string, error) {
	pcm, err := e.rec.RecordAuto(ctx)
	if err != nil {
		return "", fmt.Errorf("recording: %w", err)
	}
	return e.transcribe(ctx, pcm, e.rec.SampleRate())
}

// ListenFor records a fixed window, as used for yes/no answers.
func (e *Ear) ListenFor(ctx context.Context, d time.Duration) (string, error) {
	pcm, err := e.rec.RecordFor(ctx, d)
	if err != nil {
		return "", fmt.Errorf("recording: %w", err)
	}
	return e.transcribe(ctx, pcm, e.rec.SampleRate())
}

// TranscribeFile accepts wav, mp3 and ogg (vorbis or opus) files.
func (e *Ear) TranscribeFile(ctx context.Context, path string) (string, error) {
	pcm, err := audioconv.DecodeFile(ctx, path, audioconv.Options{})
	if err != nil {
		return "", err
	}
	return e.transcribe(ctx, pcm, audioconv.TargetRate)
}

func (e *Ear) transcribe(ctx context.Context, pcm []float32, rate int) (string, error) {
	if len(pcm) == 0 {
		return "", errors.New("empty recording")
	}

	f, err := os.CreateTemp(e.tempDir, "voxdesk-*.wav")
	if err != nil {
		return "", fmt.Errorf("temp wav: %w", err)
	}
	path := f.Name()
	f.Close()
	defer cleanup(e.logger, path, path+".txt")

	if err := audioconv.WriteWAV(path, pcm, rate); err != nil {
		return "", err
	}

	start := time.Now()
	text, err := e.stt.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}
	e.logger.Debug("transcribed", "samples", len(pcm), "took", time.Since(start), "text", text)
	return text, nil
}

func cleanup(logger *slog.Logger, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("temp cleanup", "path", p, "err", err)
		}
	}
}

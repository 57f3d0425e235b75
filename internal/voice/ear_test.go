package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voxdesk/pkg/audioconv"
)

type fakeRecorder struct {
	pcm    []float32
	err    error
	window time.Duration
}

func (f *fakeRecorder) SampleRate() int { return 16000 }

func (f *fakeRecorder) RecordAuto(context.Context) ([]float32, error) { return f.pcm, f.err }

func (f *fakeRecorder) RecordFor(_ context.Context, d time.Duration) ([]float32, error) {
	f.window = d
	return f.pcm, f.err
}

// fakeWhisper behaves like whisper-cli -otxt: it leaves <wav>.txt behind.
type fakeWhisper struct {
	text    string
	err     error
	samples int
}

func (f *fakeWhisper) Transcribe(ctx context.Context, wav string) (string, error) {
	pcm, err := audioconv.DecodeFile(ctx, wav, audioconv.Options{})
	if err != nil {
		return "", err
	}
	f.samples = len(pcm)
	os.WriteFile(wav+".txt", []byte(f.text), 0o644)
	return f.text, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestEar_ListenCleansUp(t *testing.T) {
	dir := t.TempDir()
	rec := &fakeRecorder{pcm: make([]float32, 8000)}
	wh := &fakeWhisper{text: "mute the sound"}
	ear := NewEar(rec, wh, dir, quiet())

	text, err := ear.Listen(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "mute the sound" || wh.samples != 8000 {
		t.Errorf("text %q samples %d", text, wh.samples)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left: %v", entries)
	}
}

func TestEar_CleansUpOnTranscriptionError(t *testing.T) {
	dir := t.TempDir()
	ear := NewEar(&fakeRecorder{pcm: make([]float32, 160)}, &fakeWhisper{err: errors.New("boom")}, dir, quiet())

	if _, err := ear.Listen(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left: %v", entries)
	}
}

func TestEar_ListenFor(t *testing.T) {
	rec := &fakeRecorder{pcm: make([]float32, 160)}
	ear := NewEar(rec, &fakeWhisper{text: "yes"}, t.TempDir(), quiet())

	text, err := ear.ListenFor(context.Background(), 4*time.Second)
	if err != nil || text != "yes" {
		t.Fatalf("got %q, %v", text, err)
	}
	if rec.window != 4*time.Second {
		t.Errorf("window %v", rec.window)
	}
}

func TestEar_RecordError(t *testing.T) {
	ear := NewEar(&fakeRecorder{err: errors.New("no device")}, &fakeWhisper{}, t.TempDir(), quiet())
	if _, err := ear.Listen(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	ear = NewEar(&fakeRecorder{}, &fakeWhisper{}, t.TempDir(), quiet())
	if _, err := ear.Listen(context.Background()); err == nil {
		t.Fatal("expected empty recording error")
	}
}

func TestEar_TranscribeFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	if err := audioconv.WriteWAV(src, make([]float32, 44100), 44100); err != nil {
		t.Fatal(err)
	}

	wh := &fakeWhisper{text: "next song"}
	ear := NewEar(&fakeRecorder{}, wh, t.TempDir(), quiet())

	text, err := ear.TranscribeFile(context.Background(), src)
	if err != nil || text != "next song" {
		t.Fatalf("got %q, %v", text, err)
	}
	if wh.samples != 16000 {
		t.Errorf("resampled to %d samples", wh.samples)
	}
}

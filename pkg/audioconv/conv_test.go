package audioconv

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sine(n, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestWriteWAVThenDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	in := sine(16000, 16000, 440)

	if err := WriteWAV(path, in, 16000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	out, err := DecodeFile(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len: got %d, want %d", len(out), len(in))
	}
	for i := 0; i < len(in); i += 997 {
		if math.Abs(float64(out[i]-in[i])) > 1e-3 {
			t.Fatalf("sample %d: got %f, want %f", i, out[i], in[i])
		}
	}
}

func TestDecodeFile_ResamplesAndTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteWAV(path, sine(48000, 48000, 220), 48000); err != nil {
		t.Fatal(err)
	}

	out, err := DecodeFile(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 16000 {
		t.Errorf("48k -> 16k: got %d samples", len(out))
	}

	out, _ = DecodeFile(context.Background(), path, Options{MaxSamples: 100})
	if len(out) != 100 {
		t.Errorf("MaxSamples: got %d", len(out))
	}
}

func TestDecodeFile_SniffsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "clip.wav")
	if err := WriteWAV(wavPath, sine(1600, 16000, 300), 16000); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(wavPath)
	raw := filepath.Join(dir, "clip.bin")
	os.WriteFile(raw, data, 0o644)

	if _, err := DecodeFile(context.Background(), raw, Options{}); err != nil {
		t.Errorf("RIFF sniff: %v", err)
	}

	junk := filepath.Join(dir, "junk.bin")
	os.WriteFile(junk, []byte("not audio at all"), 0o644)
	if _, err := DecodeFile(context.Background(), junk, Options{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("junk: got %v", err)
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 2, 3}
	if got := Resample(in, 16000, 16000); len(got) != 4 {
		t.Errorf("same rate changed length")
	}

	up := Resample(in, 1, 2)
	if len(up) != 8 || up[1] != 0.5 || up[7] != 3 {
		t.Errorf("upsample: %v", up)
	}
}

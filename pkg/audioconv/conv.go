// Package audioconv decodes common audio containers into 16 kHz mono float
// PCM, the input format of whisper, and writes PCM back out as WAV.
package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

// TargetRate is the sample rate every decoder resamples to.
const TargetRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	// MaxSamples truncates the output; zero keeps everything.
	MaxSamples int
}

// DecodeFile picks a decoder from the file extension, falling back to the
// container magic for unknown extensions.
func DecodeFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if kind == "oga" {
		kind = "ogg"
	}
	if kind != "wav" && kind != "mp3" && kind != "ogg" {
		kind, err = sniff(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	pcm, err := Decode(f, kind)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return truncate(pcm, opt), nil
}

// Decode reads one stream of the given kind ("wav", "mp3" or "ogg").
func Decode(r io.ReadSeeker, kind string) ([]float32, error) {
	switch kind {
	case "wav":
		return decodeWAV(r)
	case "mp3":
		return decodeMP3(r)
	case "ogg":
		pcm, err := decodeVorbis(r)
		if err == nil {
			return pcm, nil
		}
		if _, serr := r.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		pcm, oerr := decodeOpus(r)
		if oerr != nil {
			return nil, fmt.Errorf("ogg is neither vorbis (%v) nor opus (%w)", err, oerr)
		}
		return pcm, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, kind)
}

func sniff(r io.ReadSeeker) (string, error) {
	magic, _ := bufio.NewReader(r).Peek(4)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	switch string(magic) {
	case "RIFF":
		return "wav", nil
	case "OggS":
		return "ogg", nil
	case "ID3\x03", "ID3\x04":
		return "mp3", nil
	}
	return "", ErrUnsupported
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	x := intsToFloat(buf.Data, depth)

	channels, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}
	return Resample(Downmix(x, channels), rate, TargetRate), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, err
	}
	samples := make([]int16, raw.Len()/2)
	if err := binary.Read(&raw, binary.LittleEndian, samples); err != nil {
		return nil, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always emits interleaved stereo.
	return Resample(Downmix(int16sToFloat(samples), 2), rate, TargetRate), nil
}

func decodeVorbis(r io.Reader) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("invalid vorbis stream")
	}
	return Resample(Downmix(pcm, format.Channels), format.SampleRate, TargetRate), nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	// Opus always decodes at 48 kHz. n counts samples per channel.
	var pcm []float32
	buf := make([]int16, 24000*channels)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16sToFloat(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("empty opus stream")
	}
	return Resample(Downmix(pcm, channels), 48000, TargetRate), nil
}

func truncate(pcm []float32, opt Options) []float32 {
	if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
		return pcm[:opt.MaxSamples]
	}
	return pcm
}

func intsToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1, 1))
	}
	return out
}

func int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

// Downmix averages interleaved channels into mono.
func Downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// Resample converts between rates by linear interpolation.
func Resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	n := int(float64(len(in))*ratio + 0.999999)
	out := make([]float32, n)
	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		switch {
		case i0 >= len(in)-1:
			out[i] = in[len(in)-1]
		default:
			a := float32(src - float64(i0))
			out[i] = in[i0]*(1-a) + in[i0+1]*a
		}
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}

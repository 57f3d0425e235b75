//go:build whisper

package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voxdesk/pkg/audioconv"
)

type Options struct {
	Language      string // "auto", "en", ...
	TranslateToEn bool
	Threads       int // <=0 uses NumCPU
	InitialPrompt string
	BeamSize      int
	SplitOnWord   bool
}

// Native keeps a whisper model loaded in process.
type Native struct {
	model whisper.Model
	opt   Options
}

func NewNative(modelPath string, opt Options) (*Native, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Native{model: m, opt: opt}, nil
}

func (n *Native) Close() error {
	if n.model == nil {
		return nil
	}
	return n.model.Close()
}

func (n *Native) Transcribe(ctx context.Context, wavPath string) (string, error) {
	pcm, err := audioconv.DecodeFile(ctx, wavPath, audioconv.Options{})
	if err != nil {
		return "", err
	}
	return n.TranscribePCM(ctx, pcm)
}

// TranscribePCM expects mono 16 kHz samples in [-1, 1].
func (n *Native) TranscribePCM(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", errors.New("no audio samples provided")
	}

	wctx, err := n.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}

	lang := n.opt.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	wctx.SetTranslate(n.opt.TranslateToEn)

	threads := n.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if n.opt.SplitOnWord {
		wctx.SetSplitOnWord(true)
	}
	if n.opt.BeamSize > 0 {
		wctx.SetBeamSize(n.opt.BeamSize)
	}
	if n.opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(n.opt.InitialPrompt)
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		parts = append(parts, seg.Text)
	}

	return Clean(strings.Join(parts, "\n")), nil
}

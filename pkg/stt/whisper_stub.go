//go:build !whisper

package stt

import (
	"context"
	"errors"
)

var ErrNativeUnavailable = errors.New("native whisper support not compiled in (build with -tags whisper)")

type Options struct {
	Language      string
	TranslateToEn bool
	Threads       int
	InitialPrompt string
	BeamSize      int
	SplitOnWord   bool
}

type Native struct{}

func NewNative(string, Options) (*Native, error) {
	return nil, ErrNativeUnavailable
}

func (*Native) Close() error { return nil }

func (*Native) Transcribe(context.Context, string) (string, error) {
	return "", ErrNativeUnavailable
}

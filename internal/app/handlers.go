package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"voxdesk/internal/bus"
)

// BusHandler answers hub commands. Voice clips are transcribed first.
func (a *App) BusHandler() bus.Handler {
	return func(ctx context.Context, msg *bus.Message) (string, error) {
		text := msg.Content
		if len(msg.Audio) > 0 {
			t, err := a.transcribeClip(ctx, msg.Audio)
			if err != nil {
				return "", err
			}
			text = t
		}
		if text == "" {
			return "", errors.New("empty command")
		}

		reply, err := a.Assistant.Text(ctx, text)
		if err != nil {
			return "", err
		}
		return reply.String(), nil
	}
}

func (a *App) transcribeClip(ctx context.Context, data []byte) (string, error) {
	if a.Ear == nil {
		return "", errors.New("speech recognition is not available")
	}

	f, err := os.CreateTemp(a.Config.Audio.TempDir, "voxdesk-clip-*")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)

	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("saving clip: %w", werr)
	}

	return a.Ear.TranscribeFile(ctx, path)
}

package executor

import (
	"context"

	"voxdesk/internal/nlu"
)

type MediaKey int

const (
	KeyPlayPause MediaKey = iota
	KeyNext
	KeyPrevious
)

// MediaKeys simulates the keyboard's media keys.
type MediaKeys interface {
	Press(ctx context.Context, key MediaKey) error
}

type Music struct {
	keys MediaKeys
}

func NewMusic(keys MediaKeys) *Music {
	return &Music{keys: keys}
}

func (m *Music) Route() Route {
	return Route{
		Icon: "🎵",
		ActionIcons: map[string]string{
			"play_pause": "⏯️",
			"next":       "⏭️",
			"previous":   "⏮️",
		},
		Handle: m.Handle,
	}
}

func (m *Music) Handle(ctx context.Context, slots nlu.Slots) string {
	var (
		key  MediaKey
		done string
	)

	switch slots.Action("") {
	case "play_pause", "play", "pause", "resume", "toggle":
		key, done = KeyPlayPause, "Play / Pause toggled."
	case "next", "skip":
		key, done = KeyNext, "Next track."
	case "previous", "prev", "back":
		key, done = KeyPrevious, "Previous track."
	default:
		return "Unknown music action."
	}

	if m.keys == nil {
		return warnf("Media keys are not available on this system.")
	}
	if err := m.keys.Press(ctx, key); err != nil {
		return warnf("Media key failed: %v", err)
	}
	return done
}

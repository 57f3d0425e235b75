package executor

import (
	"context"
	"errors"
	"testing"

	"voxdesk/internal/nlu"
)

type fakeKeys struct {
	pressed []MediaKey
	err     error
}

func (f *fakeKeys) Press(_ context.Context, k MediaKey) error {
	f.pressed = append(f.pressed, k)
	return f.err
}

func TestMusic_Keys(t *testing.T) {
	cases := map[string]struct {
		key  MediaKey
		text string
	}{
		"play_pause": {KeyPlayPause, "Play / Pause toggled."},
		"pause":      {KeyPlayPause, "Play / Pause toggled."},
		"next":       {KeyNext, "Next track."},
		"previous":   {KeyPrevious, "Previous track."},
	}

	for action, want := range cases {
		keys := &fakeKeys{}
		out := NewMusic(keys).Handle(context.Background(), nlu.Slots{"action": action})
		if out != want.text {
			t.Errorf("%s: %q", action, out)
		}
		if len(keys.pressed) != 1 || keys.pressed[0] != want.key {
			t.Errorf("%s: pressed %v", action, keys.pressed)
		}
	}
}

func TestMusic_UnknownAndFailure(t *testing.T) {
	keys := &fakeKeys{}
	if out := NewMusic(keys).Handle(context.Background(), nlu.Slots{"action": "shuffle"}); out != "Unknown music action." {
		t.Errorf("got %q", out)
	}
	if len(keys.pressed) != 0 {
		t.Error("no key should be pressed")
	}

	out := NewMusic(&fakeKeys{err: errors.New("uinput denied")}).Handle(context.Background(), nlu.Slots{"action": "next"})
	if out != MarkWarn+" Media key failed: uinput denied" {
		t.Errorf("got %q", out)
	}
}

package pactl

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
Sink Input #57
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "voxdesk"
Sink Input #bogus
	Volume: front-left: 100%
`

type fakePactl struct {
	mu    sync.Mutex
	calls [][]string
	out   map[string]string
	err   error
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.out[args[0]]), nil
}

func (f *fakePactl) setCalls(prefix string) []string {
	var out []string
	for _, c := range f.calls {
		if c[0] == prefix {
			out = append(out, strings.Join(c[1:], " "))
		}
	}
	return out
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	if len(got) != 2 {
		t.Fatalf("got %d streams, want 2: %+v", len(got), got)
	}
	if got[0] != (streamInfo{ID: 41, Volume: 80, AppName: "Firefox"}) {
		t.Errorf("stream 0: %+v", got[0])
	}
	if got[1].AppName != "voxdesk" || got[1].Volume != 100 {
		t.Errorf("stream 1: %+v", got[1])
	}
}

func TestClient_Volume(t *testing.T) {
	f := &fakePactl{out: map[string]string{
		"get-sink-volume": "Volume: front-left: 39322 /  60% / -13.31 dB,   front-right: 39322 /  60% / -13.31 dB\n",
	}}
	c := New(f.run)

	v, err := c.Volume(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != 60 {
		t.Errorf("got %d, want 60", v)
	}

	if err := c.SetVolume(context.Background(), 400); err != nil {
		t.Fatal(err)
	}
	if got := f.setCalls("set-sink-volume"); len(got) != 1 || got[0] != "@DEFAULT_SINK@ 150%" {
		t.Errorf("set-sink-volume calls: %v", got)
	}
}

func TestClient_VolumeError(t *testing.T) {
	c := New((&fakePactl{err: errors.New("no daemon")}).run)
	if _, err := c.Volume(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDucker_DuckAndRestore(t *testing.T) {
	f := &fakePactl{out: map[string]string{"list": sinkInputs}}
	d := NewDucker(New(f.run), []string{"voxdesk"}, 10)

	if err := d.DuckOthers(context.Background(), 0.25, 0); err != nil {
		t.Fatal(err)
	}
	if got := f.setCalls("set-sink-input-volume"); len(got) != 1 || got[0] != "41 20%" {
		t.Fatalf("duck calls: %v", got)
	}

	// second duck is a no-op while active
	if err := d.DuckOthers(context.Background(), 0.25, 0); err != nil {
		t.Fatal(err)
	}
	if got := f.setCalls("set-sink-input-volume"); len(got) != 1 {
		t.Fatalf("duck should be idempotent: %v", got)
	}

	if err := d.UnduckOthers(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	got := f.setCalls("set-sink-input-volume")
	if len(got) != 2 || got[1] != "41 80%" {
		t.Fatalf("unduck calls: %v", got)
	}
}

func TestDucker_FadeSteps(t *testing.T) {
	f := &fakePactl{out: map[string]string{"list": sinkInputs}}
	d := NewDucker(New(f.run), []string{"voxdesk"}, 0)
	var slept int
	d.sleep = func(time.Duration) { slept++ }

	if err := d.DuckOthers(context.Background(), 0.5, 40*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	got := f.setCalls("set-sink-input-volume")
	if len(got) != 5 {
		t.Fatalf("want 5 fade steps, got %v", got)
	}
	if got[0] != "41 80%" || got[4] != "41 40%" {
		t.Errorf("fade endpoints: %v", got)
	}
	if slept != 4 {
		t.Errorf("slept %d times, want 4", slept)
	}
}

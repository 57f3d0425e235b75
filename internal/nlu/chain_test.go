package nlu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

type fakeCompleter struct {
	name   string
	out    string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompleter) Name() string { return f.name }

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.out, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func online(v bool) func(context.Context) bool {
	return func(context.Context) bool { return v }
}

func TestClassify_RemoteFirst(t *testing.T) {
	remote := &fakeCompleter{name: "remote", out: `{"intent":"get_weather","slots":{"location":"Vizag"}}`}
	local := &fakeCompleter{name: "local", out: `{"intent":"other"}`}

	c := NewClassifier(&Chain{Remote: remote, Local: local, Online: online(true), Logger: quietLogger()})
	r := c.Classify(context.Background(), "weather in vizag")

	if r.Intent != IntentWeather {
		t.Fatalf("intent: got %q", r.Intent)
	}
	if r.Slots.Text("location", "") != "Vizag" {
		t.Errorf("location slot: %v", r.Slots)
	}
	if local.calls != 0 {
		t.Errorf("local should not be called, got %d calls", local.calls)
	}
	if !strings.Contains(remote.prompt, `"weather in vizag"`) {
		t.Errorf("prompt should embed the utterance: %q", remote.prompt)
	}
}

func TestClassify_FallsBackOnRemoteError(t *testing.T) {
	remote := &fakeCompleter{name: "remote", err: errors.New("503")}
	local := &fakeCompleter{name: "local", out: `{"intent":"music_control","slots":{"action":"next"}}`}

	c := NewClassifier(&Chain{Remote: remote, Local: local, Online: online(true), Logger: quietLogger()})
	r := c.Classify(context.Background(), "next song")

	if r.Intent != IntentMusic {
		t.Fatalf("intent: got %q", r.Intent)
	}
	if remote.calls != 1 || local.calls != 1 {
		t.Errorf("calls: remote=%d local=%d", remote.calls, local.calls)
	}
}

func TestClassify_FallsBackOnRemoteMalformed(t *testing.T) {
	remote := &fakeCompleter{name: "remote", out: "I am not JSON"}
	local := &fakeCompleter{name: "local", out: `{"intent":"system_monitor","slots":{"action":"cpu"}}`}

	c := NewClassifier(&Chain{Remote: remote, Local: local, Online: online(true), Logger: quietLogger()})
	if r := c.Classify(context.Background(), "cpu?"); r.Intent != IntentSystem {
		t.Fatalf("intent: got %q", r.Intent)
	}
}

func TestClassify_OfflineSkipsRemote(t *testing.T) {
	remote := &fakeCompleter{name: "remote", out: `{"intent":"get_weather"}`}
	local := &fakeCompleter{name: "local", out: `{"intent":"change_volume","slots":{"action":"mute"}}`}

	c := NewClassifier(&Chain{Remote: remote, Local: local, Online: online(false), Logger: quietLogger()})
	r := c.Classify(context.Background(), "silence")

	if r.Intent != IntentVolume {
		t.Fatalf("intent: got %q", r.Intent)
	}
	if remote.calls != 0 {
		t.Errorf("remote called while offline")
	}
}

func TestClassify_AllMalformedYieldsDefault(t *testing.T) {
	remote := &fakeCompleter{name: "remote", out: `{"intent": "get_weather", "slots": {`}
	local := &fakeCompleter{name: "local", out: "```\nnope\n```"}

	c := NewClassifier(&Chain{Remote: remote, Local: local, Online: online(true), Logger: quietLogger()})
	r := c.Classify(context.Background(), "what is love")

	if r.Intent != IntentOther {
		t.Fatalf("intent: got %q, want other", r.Intent)
	}
	if r.Slots == nil || len(r.Slots) != 0 {
		t.Fatalf("slots: got %v, want empty map", r.Slots)
	}
}

func TestClassify_NoBackends(t *testing.T) {
	c := NewClassifier(&Chain{Logger: quietLogger()})
	if r := c.Classify(context.Background(), "hello"); r.Intent != IntentOther {
		t.Fatalf("intent: got %q", r.Intent)
	}
}

func TestGenerator(t *testing.T) {
	remote := &fakeCompleter{name: "remote", out: "   "}
	local := &fakeCompleter{name: "local", out: "  Quarterly report  \n"}

	g := NewGenerator(&Chain{Remote: remote, Local: local, Online: online(true), Logger: quietLogger()})
	out, err := g.Generate(context.Background(), "subject please")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Quarterly report" {
		t.Errorf("got %q", out)
	}

	g = NewGenerator(&Chain{Local: &fakeCompleter{err: errors.New("boom")}, Logger: quietLogger()})
	if _, err := g.Generate(context.Background(), "x"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("got %v, want ErrNoBackend", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	now := time.Date(2025, 10, 8, 9, 30, 0, 0, time.UTC)
	p := BuildPrompt("lock my pc", now)

	if !strings.Contains(p, "2025-10-08") {
		t.Errorf("prompt should carry today's date")
	}
	if !strings.HasSuffix(p, "Return JSON only with keys 'intent' and optional 'slots'.") {
		t.Errorf("prompt should end with the JSON instruction")
	}
}

func TestLocal_RunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a unix shell")
	}

	bin := filepath.Join(t.TempDir(), "fake-ollama")
	script := "#!/bin/sh\ncat > /dev/null\necho '{\"intent\":\"music_control\",\"slots\":{\"action\":\"play_pause\"}}'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	l := NewLocal(bin, "mistral", 5*time.Second)
	out, err := l.Complete(context.Background(), classifierSystem, "pause")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	r, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if r.Slots.Action("") != "play_pause" {
		t.Errorf("unexpected result %v", r)
	}
}

func TestLocal_MissingBinary(t *testing.T) {
	l := NewLocal(filepath.Join(t.TempDir(), "nope"), "mistral", time.Second)
	if _, err := l.Complete(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error")
	}
}

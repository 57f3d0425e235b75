package executor

import (
	"context"
	"strings"
	"testing"

	"voxdesk/internal/nlu"
)

func TestDispatch_UnknownIntentFallsBack(t *testing.T) {
	d := NewDispatcher(quietLogger())
	d.Register(nlu.IntentVolume, Route{Icon: "🔊", Handle: func(context.Context, nlu.Slots) string { return "ok" }})

	for _, intent := range []string{nlu.IntentOther, "teleport", ""} {
		reply := d.Dispatch(context.Background(), nlu.Result{Intent: intent})
		if reply.Icon != fallbackIcon {
			t.Errorf("%q: icon %q", intent, reply.Icon)
		}
		if !strings.Contains(reply.Text, "I didn't understand that command") {
			t.Errorf("%q: text %q", intent, reply.Text)
		}
	}
}

func TestDispatch_RecoversPanics(t *testing.T) {
	d := NewDispatcher(quietLogger())
	d.Register(nlu.IntentMusic, Route{Handle: func(_ context.Context, s nlu.Slots) string {
		var m map[string]int
		m["boom"] = 1
		return "unreachable"
	}})

	reply := d.Dispatch(context.Background(), nlu.Result{Intent: nlu.IntentMusic})
	if reply.Icon != MarkWarn {
		t.Errorf("icon: %q", reply.Icon)
	}
	if !strings.HasPrefix(reply.Text, "music_control failed") {
		t.Errorf("text: %q", reply.Text)
	}
	if !reply.Failed() {
		t.Error("Failed() should be true")
	}
}

func TestDispatch_IconsAndMarkers(t *testing.T) {
	d := NewDispatcher(quietLogger())
	d.Register(nlu.IntentSystem, Route{
		Icon:        "📊",
		ActionIcons: map[string]string{"cpu": "🖥️"},
		Handle: func(_ context.Context, s nlu.Slots) string {
			if s.Action("") == "bad" {
				return failf("no such stat")
			}
			return "CPU Usage: 5%"
		},
	})

	r := d.Dispatch(context.Background(), nlu.Result{Intent: nlu.IntentSystem, Slots: nlu.Slots{"action": "cpu"}})
	if r.Icon != "🖥️" || r.Text != "CPU Usage: 5%" {
		t.Errorf("cpu reply: %+v", r)
	}

	r = d.Dispatch(context.Background(), nlu.Result{Intent: nlu.IntentSystem})
	if r.Icon != "📊" {
		t.Errorf("default icon: %+v", r)
	}

	r = d.Dispatch(context.Background(), nlu.Result{Intent: nlu.IntentSystem, Slots: nlu.Slots{"action": "bad"}})
	if r.Icon != MarkError || r.Text != "no such stat" {
		t.Errorf("error reply: %+v", r)
	}
	if r.String() != "❌ no such stat" {
		t.Errorf("String(): %q", r.String())
	}
}

func TestDispatch_NilSlots(t *testing.T) {
	d := NewDispatcher(quietLogger())
	d.Register(nlu.IntentWeather, Route{Handle: func(_ context.Context, s nlu.Slots) string {
		return s.Text("location", "home")
	}})

	r := d.Dispatch(context.Background(), nlu.Result{Intent: nlu.IntentWeather, Slots: nil})
	if r.Text != "home" {
		t.Errorf("got %q", r.Text)
	}
}

func TestTranscriptContext(t *testing.T) {
	ctx := WithTranscript(context.Background(), "book a call")
	if Transcript(ctx) != "book a call" {
		t.Error("transcript lost")
	}
	if Transcript(context.Background()) != "" {
		t.Error("empty context should yield empty transcript")
	}
}

func TestSet_RegistersEveryIntent(t *testing.T) {
	d := NewDispatcher(quietLogger())
	Set{
		Volume:     NewVolume(&fakeVolume{}),
		Brightness: NewBrightness(&fakeBrightness{}),
		Power:      NewPower(nil, nil, nil, quietLogger()),
		Music:      NewMusic(nil),
		Weather:    NewWeather(nil, "Vizag"),
		Email:      NewEmail(nil, nil, nil, quietLogger()),
		Calendar:   NewCalendar(nil, nil, nil, quietLogger()),
		Code:       NewCode(CodeConfig{Workspace: t.TempDir()}, nil, quietLogger()),
		System:     NewSystemMonitor(nil),
	}.Register(d)

	if got := len(d.Intents()); got != 9 {
		t.Errorf("registered %d intents, want 9", got)
	}
}

func TestDisabledRoute(t *testing.T) {
	d := NewDispatcher(quietLogger())
	d.Register(nlu.IntentEmail, Disabled("📧", "Email"))

	r := d.Dispatch(context.Background(), nlu.Result{Intent: nlu.IntentEmail})
	if r.Icon != MarkWarn || r.Text != "Email is not configured." {
		t.Errorf("got %+v", r)
	}
}

package executor

import (
	"context"

	"voxdesk/internal/nlu"
)

// Set holds one handler per intent. Nil members are not registered and fall
// through to the unknown-intent reply.
type Set struct {
	Volume     *Volume
	Brightness *Brightness
	Power      *Power
	Music      *Music
	Weather    *Weather
	Email      *Email
	Calendar   *Calendar
	Code       *Code
	System     *SystemMonitor
}

func (s Set) Register(d *Dispatcher) {
	if s.Volume != nil {
		d.Register(nlu.IntentVolume, s.Volume.Route())
	}
	if s.Brightness != nil {
		d.Register(nlu.IntentBrightness, s.Brightness.Route())
	}
	if s.Power != nil {
		d.Register(nlu.IntentPower, s.Power.Route())
	}
	if s.Music != nil {
		d.Register(nlu.IntentMusic, s.Music.Route())
	}
	if s.Weather != nil {
		d.Register(nlu.IntentWeather, s.Weather.Route())
	}
	if s.Email != nil {
		d.Register(nlu.IntentEmail, s.Email.Route())
	}
	if s.Calendar != nil {
		d.Register(nlu.IntentEvent, s.Calendar.Route())
	}
	if s.Code != nil {
		d.Register(nlu.IntentCode, s.Code.Route())
	}
	if s.System != nil {
		d.Register(nlu.IntentSystem, s.System.Route())
	}
}

// Disabled answers every request for an intent whose backend is not set up.
func Disabled(icon, what string) Route {
	return Route{Icon: icon, Handle: func(context.Context, nlu.Slots) string {
		return warnf("%s is not configured.", what)
	}}
}

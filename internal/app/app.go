// Package app assembles the assistant from configuration. The daemon and the
// terminal front-end share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"voxdesk/internal/assistant"
	"voxdesk/internal/audio"
	"voxdesk/internal/bus"
	"voxdesk/internal/config"
	"voxdesk/internal/confirm"
	"voxdesk/internal/executor"
	"voxdesk/internal/gcal"
	"voxdesk/internal/mail"
	"voxdesk/internal/nlu"
	"voxdesk/internal/notify"
	"voxdesk/internal/pactl"
	"voxdesk/internal/proxy"
	"voxdesk/internal/tts"
	"voxdesk/internal/voice"
	"voxdesk/internal/weather"
	"voxdesk/pkg/stt"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger returns a colored tint logger; unknown levels mean info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      logLevels[strings.ToLower(level)],
		TimeFormat: time.TimeOnly,
	}))
}

type Options struct {
	// Voice enables microphone capture and speech recognition.
	Voice bool
	// AuthorizeCalendar allows the interactive Google consent flow when no
	// token is stored yet.
	AuthorizeCalendar bool
	Observers         []assistant.Observer
}

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Assistant *assistant.Assistant
	// Ear is nil when voice input is unavailable.
	Ear      *voice.Ear
	Calendar *executor.Calendar
	Bus      *bus.Bus

	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opt Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.LLM.Timeout)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", cfg.Proxy, err)
	}
	if cfg.Proxy != "" {
		logger.Debug("using socks proxy", "proxy", cfg.Proxy)
	}

	chain := &nlu.Chain{
		Local:  nlu.NewLocal(cfg.Ollama.Bin, cfg.Ollama.Model, cfg.Ollama.Timeout),
		Online: nlu.Probe(cfg.LLM.ProbeAddr, 2*time.Second),
		Logger: logger,
	}
	if cfg.LLM.APIKey != "" {
		chain.Remote = nlu.NewRemote(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, httpClient)
	} else {
		logger.Warn("no LLM API key, using the local model only")
	}
	gen := nlu.NewGenerator(chain)

	speaker := a.speaker()

	if opt.Voice {
		a.Ear = a.ear()
	}

	var gate executor.Confirmer
	if a.Ear != nil {
		gate = confirm.NewGate(speaker, confirm.ListenerFunc(func(ctx context.Context) (string, error) {
			return a.Ear.ListenFor(ctx, cfg.Audio.ConfirmWindow)
		}), cfg.Audio.ConfirmRetries, logger)
	}

	d := executor.NewDispatcher(logger)
	set := executor.Set{
		Volume:     executor.NewVolume(executor.DefaultVolumeControl(executor.ExecRunner)),
		Brightness: executor.NewBrightness(executor.DefaultBrightnessControl(executor.ExecRunner)),
		Power:      executor.NewPower(executor.NewSystemPower(executor.ExecRunner), gate, speaker, logger),
		Music:      executor.NewMusic(executor.NewMediaKeys()),
		Weather:    executor.NewWeather(weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, httpClient), cfg.Weather.DefaultLocation),
		Code: executor.NewCode(executor.CodeConfig{
			Workspace: cfg.Code.Workspace,
			Editor:    cfg.Code.Editor,
			Python:    cfg.Code.Python,
		}, gen, logger),
		System: executor.NewSystemMonitor(executor.HostStats{}),
	}

	resolve := func(name string) string { return name }
	if cfg.Email.Username != "" && cfg.Email.Password != "" {
		sender := mail.NewSMTPSender(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.From)
		set.Email = executor.NewEmail(sender, cfg.Email.Contacts, gen, logger)
		resolve = set.Email.Resolve
	} else {
		d.Register(nlu.IntentEmail, executor.Disabled("📧", "Email"))
	}

	store, err := CalendarStore(ctx, cfg.Calendar, opt.AuthorizeCalendar, logger)
	if err != nil {
		logger.Warn("calendar unavailable", "err", err)
	}
	if store != nil {
		a.Calendar = executor.NewCalendar(store, gen, resolve, logger)
		set.Calendar = a.Calendar
	} else {
		d.Register(nlu.IntentEvent, executor.Disabled("📅", "Calendar"))
	}

	set.Register(d)

	observers := append([]assistant.Observer{assistant.LogObserver{Logger: logger}}, opt.Observers...)
	if cfg.Bus.URL != "" {
		b, err := bus.Dial(ctx, cfg.Bus.URL, logger)
		if err != nil {
			logger.Warn("event bus unavailable", "err", err)
		} else {
			b.Reconnect = cfg.Bus.Reconnect
			a.Bus = b
			observers = append(observers, b)
			a.closers = append(a.closers, func() { b.Close() })
		}
	}

	cue := &notify.Notifier{Beeper: notify.NewBeeper(cfg.Audio.Beep), Logger: logger}
	if cfg.Audio.DesktopNotify {
		cue.Desktop = notify.NewDesktop("voxdesk")
	}

	opts := assistant.Options{
		Classifier: nlu.NewClassifier(chain),
		Dispatcher: d,
		Speaker:    speaker,
		Cue:        cue,
		Observers:  observers,
		Logger:     logger,
	}
	if a.Ear != nil {
		opts.Ear = a.Ear
	}
	a.Assistant = assistant.New(opts)

	logger.Info("assistant ready", "intents", d.Intents(), "voice", a.Ear != nil)
	return a, nil
}

func (a *App) speaker() tts.Speaker {
	cfg := a.Config.TTS
	if !cfg.Enabled {
		return tts.Nop{}
	}

	var s tts.Speaker = tts.NewCommand(cfg.Command)
	if cfg.Duck && runtime.GOOS == "linux" {
		s = &tts.Ducked{
			Speaker: s,
			Ducker:  pactl.NewDucker(pactl.New(nil), cfg.SelfNames, 5),
			Factor:  cfg.DuckFactor,
			Fade:    150 * time.Millisecond,
		}
	}
	return s
}

func (a *App) ear() *voice.Ear {
	cfg := a.Config

	rec := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.MaxDuration)
	if err := rec.Init(); err != nil {
		a.Logger.Warn("microphone unavailable, voice input disabled", "err", err)
		return nil
	}
	a.closers = append(a.closers, rec.Close)

	var tr stt.Transcriber
	switch cfg.Whisper.Engine {
	case "native":
		n, err := stt.NewNative(cfg.Whisper.Model, stt.Options{
			Language: cfg.Whisper.Language,
			Threads:  cfg.Whisper.Threads,
		})
		if err != nil {
			a.Logger.Warn("native whisper unavailable, falling back to cli", "err", err)
			break
		}
		a.closers = append(a.closers, func() { n.Close() })
		tr = n
	}
	if tr == nil {
		tr = stt.NewCLI(cfg.Whisper.Bin, cfg.Whisper.Model, cfg.Whisper.Language, cfg.Whisper.Threads)
	}

	return voice.NewEar(rec, tr, cfg.Audio.TempDir, a.Logger)
}

// CalendarStore opens the Google calendar. It returns nil without error when
// no OAuth client credentials are configured.
func CalendarStore(ctx context.Context, cfg config.CalendarConfig, authorize bool, logger *slog.Logger) (*gcal.Store, error) {
	if _, err := os.Stat(cfg.Credentials); err != nil {
		return nil, nil
	}
	if !authorize {
		if _, err := gcal.LoadToken(cfg.Token); err != nil {
			return nil, errors.New("no calendar token yet; run voxdesk-cal once to authorize")
		}
	}

	client, err := gcal.NewHTTPClient(ctx, cfg.Credentials, cfg.Token, executor.OpenBrowser, logger)
	if err != nil {
		return nil, err
	}
	return gcal.NewStore(ctx, client, cfg.CalendarID, cfg.TimeZone)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

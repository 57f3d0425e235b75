// Package assistant runs the listen, classify, execute and speak loop.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"voxdesk/internal/executor"
	"voxdesk/internal/nlu"
)

var (
	ErrNoSpeech = errors.New("no speech recognized")
	ErrStopped  = errors.New("assistant stopped")
)

type Classifier interface {
	Classify(ctx context.Context, transcript string) nlu.Result
}

type Dispatcher interface {
	Dispatch(ctx context.Context, res nlu.Result) executor.Reply
}

// Ear records one utterance and returns its transcript.
type Ear interface {
	Listen(ctx context.Context) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Cue tells the user that recording is about to start.
type Cue interface {
	Listening(ctx context.Context)
}

type Options struct {
	Classifier Classifier
	Dispatcher Dispatcher
	Ear        Ear
	Speaker    Speaker
	Cue        Cue
	Observers  []Observer
	Logger     *slog.Logger

	// QueueSize bounds pending jobs; Submit blocks when it is full.
	QueueSize int
	// PollInterval is how often the listen loop re-checks while speech is
	// playing.
	PollInterval time.Duration
	// RetryDelay is the pause after a failed listen in continuous mode.
	RetryDelay time.Duration
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
	ran  bool
}

type Assistant struct {
	classifier Classifier
	dispatcher Dispatcher
	ear        Ear
	speaker    Speaker
	cue        Cue
	observers  []Observer
	logger     *slog.Logger

	pollInterval time.Duration
	retryDelay   time.Duration

	state State
	jobs  chan *job
	quit  chan struct{}
	now   func() time.Time
}

func New(opt Options) *Assistant {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.QueueSize <= 0 {
		opt.QueueSize = 16
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = 100 * time.Millisecond
	}
	if opt.RetryDelay <= 0 {
		opt.RetryDelay = time.Second
	}
	return &Assistant{
		classifier:   opt.Classifier,
		dispatcher:   opt.Dispatcher,
		ear:          opt.Ear,
		speaker:      opt.Speaker,
		cue:          opt.Cue,
		observers:    opt.Observers,
		logger:       opt.Logger,
		pollInterval: opt.PollInterval,
		retryDelay:   opt.RetryDelay,
		jobs:         make(chan *job, opt.QueueSize),
		quit:         make(chan struct{}),
		now:          time.Now,
	}
}

func (a *Assistant) State() *State { return &a.state }

// Run executes submitted jobs one at a time until ctx is done.
func (a *Assistant) Run(ctx context.Context) error {
	defer close(a.quit)
	a.logger.Info("assistant worker started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("assistant worker stopped")
			return ctx.Err()
		case j := <-a.jobs:
			if j.ctx.Err() == nil {
				j.fn(j.ctx)
				j.ran = true
			}
			close(j.done)
		}
	}
}

// Submit queues fn for the worker and waits until it has run.
func (a *Assistant) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	j := &job{ctx: ctx, fn: fn, done: make(chan struct{})}

	select {
	case a.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.quit:
		return ErrStopped
	}

	select {
	case <-j.done:
		if !j.ran {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.quit:
		return ErrStopped
	}
}

// Text handles a typed command on the worker. The reply travels back over a
// channel so a caller that gives up early never shares memory with the job.
func (a *Assistant) Text(ctx context.Context, text string) (executor.Reply, error) {
	out := make(chan executor.Reply, 1)
	err := a.Submit(ctx, func(ctx context.Context) {
		out <- a.HandleText(ctx, text)
	})
	if err != nil {
		return executor.Reply{}, err
	}
	return <-out, nil
}

type voiceTurn struct {
	transcript string
	reply      executor.Reply
	err        error
}

// Voice runs one spoken turn on the worker.
func (a *Assistant) Voice(ctx context.Context) (string, executor.Reply, error) {
	out := make(chan voiceTurn, 1)
	err := a.Submit(ctx, func(ctx context.Context) {
		var t voiceTurn
		t.transcript, t.reply, t.err = a.HandleVoice(ctx)
		out <- t
	})
	if err != nil {
		return "", executor.Reply{}, err
	}
	t := <-out
	return t.transcript, t.reply, t.err
}

// HandleText classifies and executes text directly on the calling goroutine.
func (a *Assistant) HandleText(ctx context.Context, text string) executor.Reply {
	text = strings.TrimSpace(text)
	a.emit(Event{Kind: KindUser, Text: text})
	return a.handle(ctx, text)
}

// HandleVoice records and transcribes one utterance, then handles it.
func (a *Assistant) HandleVoice(ctx context.Context) (string, executor.Reply, error) {
	if a.ear == nil {
		return "", executor.Reply{}, errors.New("voice input is not available")
	}

	if a.cue != nil {
		a.cue.Listening(ctx)
	}
	a.emit(Event{Kind: KindStatus, Text: "Listening..."})

	transcript, err := a.ear.Listen(ctx)
	if err != nil {
		a.emit(Event{Kind: KindError, Text: "Voice input failed: " + err.Error()})
		return "", executor.Reply{}, err
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		a.emit(Event{Kind: KindStatus, Text: "No speech detected."})
		return "", executor.Reply{}, ErrNoSpeech
	}

	a.emit(Event{Kind: KindTranscript, Text: transcript})
	return transcript, a.handle(ctx, transcript), nil
}

func (a *Assistant) handle(ctx context.Context, text string) executor.Reply {
	res := a.classifier.Classify(ctx, text)
	a.emit(Event{Kind: KindIntent, Intent: res.Intent, Text: res.String()})
	a.emit(Event{Kind: KindAction, Intent: res.Intent, Text: "Executing " + res.Intent})

	reply := a.dispatcher.Dispatch(executor.WithTranscript(ctx, text), res)
	a.emit(Event{Kind: KindReply, Intent: reply.Intent, Icon: reply.Icon, Text: reply.Text})

	a.speak(ctx, reply.Text)
	return reply
}

func (a *Assistant) speak(ctx context.Context, text string) {
	if a.speaker == nil || a.state.Muted() || text == "" {
		return
	}
	a.state.speaking.Store(true)
	defer a.state.speaking.Store(false)

	if err := a.speaker.Speak(ctx, text); err != nil {
		a.logger.Warn("speech output failed", "err", err)
	}
}

func (a *Assistant) SetMuted(muted bool) {
	a.state.SetMuted(muted)
	text := "Speech output on."
	if muted {
		text = "Speech output muted."
	}
	a.emit(Event{Kind: KindStatus, Text: text})
}

// ToggleListening starts the listen loop in the background, or stops it if it
// is running. It reports whether listening is now on.
func (a *Assistant) ToggleListening(ctx context.Context) bool {
	if a.state.Listening() {
		a.StopListening()
		return false
	}
	started := make(chan struct{})
	go a.listenLoop(ctx, started)
	<-started
	return a.state.Listening()
}

func (a *Assistant) StopListening() {
	if a.state.listening.Swap(false) {
		a.emit(Event{Kind: KindStatus, Text: "Listening stopped."})
	}
}

// ListenLoop records utterances until one of them produces a reply, listening
// is stopped or ctx ends.
func (a *Assistant) ListenLoop(ctx context.Context) {
	a.listenLoop(ctx, nil)
}

func (a *Assistant) listenLoop(ctx context.Context, started chan<- struct{}) {
	ok := a.state.listening.CompareAndSwap(false, true)
	if started != nil {
		close(started)
	}
	if !ok {
		return
	}
	defer a.state.SetListening(false)

	a.emit(Event{Kind: KindStatus, Text: "Continuous listening on."})

	for a.state.Listening() {
		if ctx.Err() != nil {
			return
		}
		if a.state.Speaking() {
			if !sleep(ctx, a.pollInterval) {
				return
			}
			continue
		}

		_, _, err := a.Voice(ctx)
		switch {
		case err == nil:
			return
		case errors.Is(err, ErrStopped), ctx.Err() != nil:
			return
		case errors.Is(err, ErrNoSpeech):
		default:
			a.logger.Warn("listen failed", "err", err)
			if !sleep(ctx, a.retryDelay) {
				return
			}
		}
	}
}

func (a *Assistant) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = a.now()
	}
	for _, o := range a.observers {
		o.Observe(e)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

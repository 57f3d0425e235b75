// Package confirm asks the user a spoken yes/no question.
package confirm

import (
	"context"
	"log/slog"
	"strings"
)

const reprompt = "I didn't catch that. Please say yes or no."

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Listener records a short answer and returns its transcript.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type ListenerFunc func(ctx context.Context) (string, error)

func (f ListenerFunc) Listen(ctx context.Context) (string, error) { return f(ctx) }

type Answer int

const (
	Unclear Answer = iota
	Yes
	No
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unclear"
	}
}

var (
	yesWords = set("yes", "yeah", "yup", "confirm", "sure", "okay", "ok", "affirmative", "proceed")
	noWords  = set("no", "nope", "nah", "cancel", "stop", "negative", "don't")

	noPhrases   = []string{"do not", "not now"}
	yesPrefixes = []string{"yes", "yeah", "ok", "okay"}
	noPrefixes  = []string{"no", "nah", "cancel"}
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Decide interprets a transcript. Yes wins over no when both occur.
func Decide(transcript string) Answer {
	text := strings.ToLower(strings.TrimSpace(transcript))
	text = strings.NewReplacer(".", "", ",", "", "!", "", "?", "").Replace(text)
	if text == "" {
		return Unclear
	}

	tokens := strings.Fields(text)
	for _, t := range tokens {
		if _, ok := yesWords[t]; ok {
			return Yes
		}
	}
	for _, t := range tokens {
		if _, ok := noWords[t]; ok {
			return No
		}
	}

	joined := strings.Join(tokens, " ")
	for _, p := range noPhrases {
		if strings.Contains(joined, p) {
			return No
		}
	}
	for _, p := range yesPrefixes {
		if strings.HasPrefix(joined, p) {
			return Yes
		}
	}
	for _, p := range noPrefixes {
		if strings.HasPrefix(joined, p) {
			return No
		}
	}
	return Unclear
}

// Gate speaks a question and listens for the answer, re-asking up to Retries
// times when the answer is unclear.
type Gate struct {
	speaker  Speaker
	listener Listener
	retries  int
	logger   *slog.Logger
}

func NewGate(speaker Speaker, listener Listener, retries int, logger *slog.Logger) *Gate {
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{speaker: speaker, listener: listener, retries: retries, logger: logger}
}

// Confirm returns true only on a clear yes. Failures to record or transcribe
// count as unclear answers.
func (g *Gate) Confirm(ctx context.Context, prompt string) bool {
	for attempt := 0; attempt <= g.retries; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		g.say(ctx, prompt)

		heard, err := g.listener.Listen(ctx)
		if err != nil {
			g.logger.Warn("confirmation listen failed", "attempt", attempt+1, "err", err)
		}

		answer := Decide(heard)
		g.logger.Info("confirmation", "heard", heard, "answer", answer)

		switch answer {
		case Yes:
			return true
		case No:
			return false
		}

		if attempt < g.retries {
			g.say(ctx, reprompt)
		}
	}
	return false
}

func (g *Gate) say(ctx context.Context, text string) {
	if g.speaker == nil {
		return
	}
	if err := g.speaker.Speak(ctx, text); err != nil {
		g.logger.Warn("speak failed", "err", err)
	}
}

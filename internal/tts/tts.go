// Package tts speaks assistant replies.
package tts

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Runner starts name with args, feeding stdin, and waits for it to exit.
type Runner func(ctx context.Context, stdin, name string, args ...string) error

func execRunner(ctx context.Context, stdin, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// TextArg in a command template is replaced by the text to speak. Templates
// without it receive the text on stdin.
const TextArg = "{text}"

// Command speaks through an external synthesizer such as espeak-ng or say.
type Command struct {
	argv []string
	run  Runner
	mu   sync.Mutex
}

func NewCommand(argv []string) *Command {
	if len(argv) == 0 {
		argv = DefaultCommand(runtime.GOOS)
	}
	return &Command{argv: argv, run: execRunner}
}

// DefaultCommand is the stock synthesizer for goos.
func DefaultCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"say", TextArg}
	case "windows":
		return []string{"powershell", "-NoProfile", "-Command",
			"Add-Type -AssemblyName System.Speech; " +
				"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak([Console]::In.ReadToEnd())"}
	default:
		return []string{"espeak-ng", "-v", "en", TextArg}
	}
}

func (c *Command) Speak(ctx context.Context, text string) error {
	text = Speakable(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	args := make([]string, 0, len(c.argv)-1)
	stdin := text
	for _, a := range c.argv[1:] {
		if a == TextArg {
			a, stdin = text, ""
		}
		args = append(args, a)
	}
	return c.run(ctx, stdin, c.argv[0], args...)
}

// Speakable drops emoji and other pictographs that synthesizers read out
// literally.
func Speakable(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 0x1F000, r >= 0x2600 && r <= 0x27BF, r == 0xFE0F, r == 0x200D:
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Nop discards everything; used when speech output is disabled.
type Nop struct{}

func (Nop) Speak(context.Context, string) error { return nil }

// Ducker lowers other audio streams while the assistant talks.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, fade time.Duration) error
	UnduckOthers(ctx context.Context, fade time.Duration) error
}

// Ducked wraps a Speaker so other applications are quieter while it speaks.
type Ducked struct {
	Speaker Speaker
	Ducker  Ducker
	Factor  float64
	Fade    time.Duration
}

func (d *Ducked) Speak(ctx context.Context, text string) error {
	// Ducking is best effort; speech goes ahead without it.
	if err := d.Ducker.DuckOthers(ctx, d.Factor, d.Fade); err == nil {
		defer d.Ducker.UnduckOthers(context.WithoutCancel(ctx), d.Fade)
	}
	return d.Speaker.Speak(ctx, text)
}

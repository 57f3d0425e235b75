package nlu

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Local runs a model through the ollama CLI, prompt on stdin.
type Local struct {
	bin     string
	model   string
	timeout time.Duration
}

func NewLocal(bin, model string, timeout time.Duration) *Local {
	return &Local{bin: bin, model: model, timeout: timeout}
}

func (l *Local) Name() string { return "ollama:" + l.model }

func (l *Local) Complete(ctx context.Context, system, prompt string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	input := prompt
	if system != "" {
		input = system + "\n\n" + prompt
	}

	cmd := exec.CommandContext(ctx, l.bin, "run", l.model)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s run %s: %w (%s)", l.bin, l.model, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("%s returned no output", l.bin)
	}
	return out, nil
}

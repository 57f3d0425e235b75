// Package stt turns recorded speech into text with whisper.cpp.
package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Transcriber converts one WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Runner executes the whisper binary and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// CLI runs the whisper.cpp command line tool, which writes its transcript
// next to the input as <wav>.txt.
type CLI struct {
	Bin      string
	Model    string
	Language string
	Threads  int

	run Runner
}

func NewCLI(bin, model, language string, threads int) *CLI {
	return &CLI{Bin: bin, Model: model, Language: language, Threads: threads, run: execRunner}
}

func (c *CLI) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if c.Model == "" {
		return "", errors.New("whisper model path not configured")
	}
	if _, err := os.Stat(c.Model); err != nil {
		return "", fmt.Errorf("whisper model: %w", err)
	}

	args := []string{"-m", c.Model, "-f", wavPath, "-otxt", "-np"}
	if c.Language != "" {
		args = append(args, "-l", c.Language)
	}
	if c.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(c.Threads))
	}

	stdout, err := c.run(ctx, c.Bin, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Bin, err)
	}

	txtPath := wavPath + ".txt"
	data, err := os.ReadFile(txtPath)
	if err != nil {
		// Older builds only print to stdout.
		return Clean(string(stdout)), nil
	}
	os.Remove(txtPath)

	return Clean(string(data)), nil
}

// Clean joins transcript lines and drops whisper's non-speech markers such as
// [BLANK_AUDIO] or (music).
func Clean(s string) string {
	var words []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "]  "); strings.HasPrefix(line, "[") && i > 0 {
			line = strings.TrimSpace(line[i+1:])
		}
		if line == "" || isMarker(line) {
			continue
		}
		words = append(words, line)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func isMarker(s string) bool {
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Runner runs a program to completion and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Launcher starts a program without waiting for it.
type Launcher func(name string, args ...string) error

func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func ExecLauncher(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}

// OpenBrowser hands url to the desktop's default handler.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return ExecLauncher("open", url)
	case "windows":
		return ExecLauncher("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return ExecLauncher("xdg-open", url)
	}
}

// Output runs a program and returns stdout and stderr separately.
type Output func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

func ExecOutput(ctx context.Context, name string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Package pactl drives PulseAudio/PipeWire through the pactl CLI.
package pactl

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// Runner executes pactl with args and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func execRunner(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

type Client struct {
	run Runner
}

// New returns a client that shells out to pactl. A nil runner uses exec.
func New(run Runner) *Client {
	if run == nil {
		run = execRunner
	}
	return &Client{run: run}
}

const defaultSink = "@DEFAULT_SINK@"

// Volume reports the default sink volume in percent (first channel).
func (c *Client) Volume(ctx context.Context) (int, error) {
	out, err := c.run(ctx, "get-sink-volume", defaultSink)
	if err != nil {
		return 0, err
	}
	m := percentRe.FindStringSubmatch(string(out))
	if len(m) < 2 {
		return 0, fmt.Errorf("no volume in %q", strings.TrimSpace(string(out)))
	}
	return strconv.Atoi(m[1])
}

func (c *Client) SetVolume(ctx context.Context, percent int) error {
	percent = clamp(percent, 0, 150)
	_, err := c.run(ctx, "set-sink-volume", defaultSink, fmt.Sprintf("%d%%", percent))
	return err
}

func (c *Client) SetMute(ctx context.Context, mute bool) error {
	v := "0"
	if mute {
		v = "1"
	}
	_, err := c.run(ctx, "set-sink-mute", defaultSink, v)
	return err
}

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

func (c *Client) listStreams(ctx context.Context) ([]streamInfo, error) {
	out, err := c.run(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, err
	}
	return parseSinkInputs(string(out)), nil
}

func parseSinkInputs(text string) []streamInfo {
	parts := strings.Split(text, "Sink Input #")
	if len(parts) <= 1 {
		return nil
	}

	var res []streamInfo

	for _, block := range parts[1:] {
		newline := strings.IndexByte(block, '\n')
		if newline <= 0 {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(block[:newline]))
		if err != nil {
			continue
		}

		s := streamInfo{ID: id}

		for _, line := range strings.Split(block[newline+1:], "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			}

			// application.name = "Firefox"
			if strings.HasPrefix(line, "application.name =") && s.AppName == "" {
				if i := strings.IndexByte(line, '"'); i >= 0 {
					rest := line[i+1:]
					if j := strings.IndexByte(rest, '"'); j >= 0 {
						s.AppName = rest[:j]
					}
				}
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}

		res = append(res, s)
	}

	return res
}

func (c *Client) setSinkInputVolume(ctx context.Context, id, percent int) error {
	percent = clamp(percent, 0, 150)
	_, err := c.run(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent))
	return err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

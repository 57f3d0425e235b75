package ipc

import (
	"context"
	"errors"
	"fmt"

	"voxdesk/internal/assistant"
)

// AssistantHandler maps control socket commands onto the assistant. root outlives
// single requests and owns the background listen loop.
func AssistantHandler(root context.Context, a *assistant.Assistant) Handler {
	return func(ctx context.Context, req Request) Response {
		switch req.Cmd {
		case CmdTrigger:
			transcript, reply, err := a.Voice(ctx)
			if errors.Is(err, assistant.ErrNoSpeech) {
				return Response{OK: true, Text: "No speech detected."}
			}
			if err != nil {
				return Errorf("voice turn failed: %v", err)
			}
			return Response{OK: true, Text: fmt.Sprintf("%q → %s", transcript, reply)}

		case CmdText:
			if req.Text == "" {
				return Errorf("text command needs text")
			}
			reply, err := a.Text(ctx, req.Text)
			if err != nil {
				return Errorf("%v", err)
			}
			return Response{OK: !reply.Failed(), Text: reply.String()}

		case CmdListen:
			if a.ToggleListening(root) {
				return Response{OK: true, Text: "Continuous listening on."}
			}
			return Response{OK: true, Text: "Continuous listening off."}

		case CmdMute:
			a.SetMuted(true)
			return Response{OK: true, Text: "Muted."}

		case CmdUnmute:
			a.SetMuted(false)
			return Response{OK: true, Text: "Unmuted."}

		case CmdStatus:
			s := a.State().Snapshot()
			return Response{OK: true, Text: fmt.Sprintf("muted=%t listening=%t speaking=%t", s.Muted, s.Listening, s.Speaking)}
		}
		return Errorf("unknown command %q", req.Cmd)
	}
}


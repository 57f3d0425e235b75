package assistant

import "sync/atomic"

// State is shared between the worker, the listen loop and front-ends.
type State struct {
	muted     atomic.Bool
	listening atomic.Bool
	speaking  atomic.Bool
}

type Status struct {
	Muted     bool `json:"muted"`
	Listening bool `json:"listening"`
	Speaking  bool `json:"speaking"`
}

func (s *State) Muted() bool     { return s.muted.Load() }
func (s *State) Listening() bool { return s.listening.Load() }
func (s *State) Speaking() bool  { return s.speaking.Load() }

func (s *State) SetMuted(v bool)     { s.muted.Store(v) }
func (s *State) SetListening(v bool) { s.listening.Store(v) }

func (s *State) Snapshot() Status {
	return Status{Muted: s.Muted(), Listening: s.Listening(), Speaking: s.Speaking()}
}

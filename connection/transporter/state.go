package transporter

import (
	"sync"

	"orbitrelay.dev/orbitlib/connection/pending"
)

// State is shared by a connection's writer and reader. The liveness flag and the
// draining of the pending requests are guarded by the same lock so that exactly one
// caller ever observes the transition to disconnected.
type State struct {
	lock      sync.Mutex
	connected bool
	pending   *pending.Tracker
}

func NewState(tracker *pending.Tracker) *State {
	return &State{
		connected: true,
		pending:   tracker,
	}
}

func (s *State) Connected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.connected
}

func (s *State) Pending() *pending.Tracker {
	return s.pending
}

// MarkDisconnected flips the connection to disconnected and fails every outstanding
// request. Only the first call does anything; it returns true for that call.
func (s *State) MarkDisconnected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.connected {
		return false
	}

	s.connected = false
	s.pending.FailAll(&DisconnectedError{})
	return true
}

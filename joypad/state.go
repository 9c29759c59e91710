package joypad

import "sync"

// State is the controller state shared between the input goroutine and the emulation
// goroutine. Every read returns a self-consistent copy.
type State struct {
	mu      sync.Mutex
	buttons Snapshot
}

func NewState() *State {
	return &State{}
}

func (s *State) Set(b Button, pressed bool) {
	if !b.Valid() {
		return
	}
	s.mu.Lock()
	s.buttons[b] = pressed
	s.mu.Unlock()
}

func (s *State) Get(b Button) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons.Pressed(b)
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons
}

// Reset releases every button.
func (s *State) Reset() {
	s.mu.Lock()
	s.buttons = Snapshot{}
	s.mu.Unlock()
}

// Replace overwrites the whole state from an external snapshot. The snapshot is applied
// even when it is malformed; see FromMap for how the returned report is built.
func (s *State) Replace(m map[string]bool) error {
	snap, err := FromMap(m)
	s.ReplaceSnapshot(snap)
	return err
}

func (s *State) ReplaceSnapshot(snap Snapshot) {
	s.mu.Lock()
	s.buttons = snap
	s.mu.Unlock()
}

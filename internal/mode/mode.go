// Package mode tracks which state the assistant's command loop is in:
// idle wake-word listening, an open command window, or awaiting a spoken
// selection.
package mode

import (
	"fmt"
	"time"
)

// Mode is the assistant's top-level state.
type Mode int

const (
	// Listening is the initial state; only the wake phrase leaves it.
	Listening Mode = iota
	// CommandWindow treats any utterance as a command. It is refreshed on
	// every utterance and expires back to Listening after a fixed timeout.
	CommandWindow
	// AwaitingSelection is entered when a multi-result set must be
	// resolved by voice rather than by the picker.
	AwaitingSelection
)

func (m Mode) String() string {
	switch m {
	case Listening:
		return "listening"
	case CommandWindow:
		return "command_window"
	case AwaitingSelection:
		return "awaiting_selection"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m == Listening || m == CommandWindow || m == AwaitingSelection
}

// Machine is the assistant mode state machine. It is owned by the
// assistant's single control goroutine and is not safe for concurrent
// use.
type Machine struct {
	mode    Mode
	window  time.Duration
	started time.Time // zero unless mode == CommandWindow

	now func() time.Time
}

// New creates a machine in Listening with the given command-window
// expiry.
func New(window time.Duration) *Machine {
	return &Machine{
		window: window,
		now:    time.Now,
	}
}

// NewWithClock is New with an injected time source. A nil now falls back
// to the wall clock.
func NewWithClock(window time.Duration, now func() time.Time) *Machine {
	m := New(window)
	if now != nil {
		m.now = now
	}
	return m
}

// Mode returns the current state.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Set transitions to target. Unknown targets are rejected. Only
// CommandWindow carries a timestamp; entering any other state clears it.
func (m *Machine) Set(target Mode) error {
	if !target.valid() {
		return fmt.Errorf("unknown assistant mode %d", int(target))
	}
	m.mode = target
	if target == CommandWindow {
		m.started = m.now()
	} else {
		m.started = time.Time{}
	}
	return nil
}

// Refresh restamps the command window. A no-op in any other state.
func (m *Machine) Refresh() {
	if m.mode == CommandWindow {
		m.started = m.now()
	}
}

// ExpireIfStale forces a transition back to Listening if the command
// window is older than the configured timeout. It reports whether an
// expiry happened; callers must re-evaluate the utterance for a wake
// phrase afterwards.
func (m *Machine) ExpireIfStale() bool {
	if m.mode != CommandWindow {
		return false
	}
	if m.now().Sub(m.started) <= m.window {
		return false
	}
	m.mode = Listening
	m.started = time.Time{}
	return true
}

// WindowStartedAt returns the command-window timestamp, zero when not in
// CommandWindow.
func (m *Machine) WindowStartedAt() time.Time {
	return m.started
}

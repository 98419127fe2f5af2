// Package endstop provides endstop switch state and query handling.
package endstop

import (
	"errors"
	"sync"
)

// Common errors
var (
	ErrNoQuery = errors.New("endstop: no query callback configured")
)

// State represents the current state of an endstop.
type State int

const (
	StateOpen State = iota
	StateTriggered
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Endstop represents a single endstop switch. The switch level is read
// through a query callback so the same type serves sysfs GPIO inputs,
// MCU-reported switches and test fakes.
type Endstop struct {
	mu sync.RWMutex

	// Configuration
	name     string
	pin      int
	inverted bool

	// homingDir is the mechanical step direction that moves toward
	// this switch: +1 or -1.
	homingDir int

	// State
	state State

	queryState func() (bool, error)
}

// Config holds configuration for an endstop.
type Config struct {
	Name      string
	Pin       int
	Inverted  bool
	HomingDir int
}

// New creates a new endstop.
func New(cfg Config) *Endstop {
	dir := cfg.HomingDir
	if dir == 0 {
		dir = -1
	}
	return &Endstop{
		name:      cfg.Name,
		pin:       cfg.Pin,
		inverted:  cfg.Inverted,
		homingDir: dir,
		state:     StateUnknown,
	}
}

// SetQueryCallback sets the callback for querying the raw switch level.
func (e *Endstop) SetQueryCallback(fn func() (bool, error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queryState = fn
}

// BindLevel wires the endstop to an integer level reader with the
// shape of a sysfs GPIO read: nonzero means the switch input is high.
// Inversion is applied on top by Query.
func (e *Endstop) BindLevel(read func() (int, error)) {
	e.SetQueryCallback(func() (bool, error) {
		v, err := read()
		return v != 0, err
	})
}

// GetName returns the endstop name.
func (e *Endstop) GetName() string {
	return e.name
}

// GetPin returns the input pin number.
func (e *Endstop) GetPin() int {
	return e.pin
}

// HomingDir returns the step direction that moves toward the switch.
func (e *Endstop) HomingDir() int {
	return e.homingDir
}

// GetState returns the last queried state.
func (e *Endstop) GetState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Query reads the switch and returns its logical state.
func (e *Endstop) Query() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queryState == nil {
		return StateUnknown, ErrNoQuery
	}
	level, err := e.queryState()
	if err != nil {
		e.state = StateUnknown
		return StateUnknown, err
	}
	if e.inverted {
		level = !level
	}
	if level {
		e.state = StateTriggered
	} else {
		e.state = StateOpen
	}
	return e.state, nil
}

// Triggered reports whether the switch currently reads as triggered.
// Query failures and a missing callback read as not triggered; homing
// against a dead switch is caught by the axis travel limits instead.
func (e *Endstop) Triggered() bool {
	s, err := e.Query()
	return err == nil && s == StateTriggered
}

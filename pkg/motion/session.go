package motion

import (
	"math"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/log"
)

// Session generates the merged step stream for one machine. The
// stepper collection is allocated once, sized to the configured axis
// count, and reused for every queued move; nothing inside the
// select/advance loop allocates.
//
// A Session is single-threaded by design: selection never mutates
// stepper state, and only Next advances the fired axis. Callers cancel
// a move by simply ceasing to call Next.
type Session struct {
	machine     *coordmap.Machine
	steppers    []AxisStepper
	curPos      []int
	useEndstops bool
	active      bool

	moveSteps  uint64
	totalSteps uint64

	logger *log.Logger
}

// NewSession creates a session for the given machine.
func NewSession(m *coordmap.Machine) *Session {
	n := m.NumAxes()
	return &Session{
		machine:  m,
		steppers: make([]AxisStepper, n),
		curPos:   make([]int, n),
		logger:   log.GetLogger("motion"),
	}
}

// BeginLine queues a straight-line move from the given mechanical
// position and primes every axis with its first pending step.
func (s *Session) BeginLine(curPos []int, move LineMove, useEndstops bool) {
	copy(s.curPos, curPos)
	s.useEndstops = useEndstops
	s.moveSteps = 0
	s.active = true
	InitAxisSteppers(s.steppers, useEndstops, s.machine, s.curPos, move)
	s.logger.WithField("duration", move.Duration).Debug("line move queued")
}

// BeginArc queues a circular move from the given mechanical position.
func (s *Session) BeginArc(curPos []int, move ArcMove, useEndstops bool) {
	copy(s.curPos, curPos)
	s.useEndstops = useEndstops
	s.moveSteps = 0
	s.active = true
	InitAxisArcSteppers(s.steppers, useEndstops, s.machine, s.curPos, move)
	s.logger.WithField("duration", move.Duration).Debug("arc move queued")
}

// Next returns the globally-earliest pending step, advances the fired
// axis, and reports false once every axis has no further step. An
// undefined (NaN) winner means no axis has a defined step left, which
// also completes the move.
func (s *Session) Next() (StepEvent, bool) {
	if !s.active {
		return StepEvent{}, false
	}
	st := GetNextTime(s.steppers)
	if st.Time <= 0 || math.IsNaN(st.Time) {
		s.active = false
		s.logger.WithField("steps", s.moveSteps).Debug("move complete")
		return StepEvent{}, false
	}
	ev := StepEvent{Axis: st.Index(), Time: st.Time, Direction: st.Direction}
	s.curPos[st.Index()] += st.Direction.Signed()
	s.moveSteps++
	s.totalSteps++
	st.NextStep(s.useEndstops)
	return ev, true
}

// Active reports whether a move is in progress.
func (s *Session) Active() bool {
	return s.active
}

// Position returns the current mechanical position. The returned slice
// is owned by the session; callers must copy it to retain it.
func (s *Session) Position() []int {
	return s.curPos
}

// MoveSteps returns the steps consumed from the current (or last) move.
func (s *Session) MoveSteps() uint64 {
	return s.moveSteps
}

// TotalSteps returns the steps consumed over the session's lifetime.
func (s *Session) TotalSteps() uint64 {
	return s.totalSteps
}

// Machine returns the session's kinematic description.
func (s *Session) Machine() *coordmap.Machine {
	return s.machine
}

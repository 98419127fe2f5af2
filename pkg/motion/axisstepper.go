package motion

import (
	"math"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/endstop"
)

// AxisStepper holds the next pending step for one mechanical axis of
// one queued move. It is a tagged variant over the axis roles: the
// role is fixed at configuration time and NextStep dispatches on it
// with a single switch, so the per-step hot path carries no interface
// indirection.
//
// Time regimes:
//   - positive finite: a real pending step, Direction is valid
//   - non-positive:    no further step for this axis in this move
//   - NaN:             next step currently unresolvable
type AxisStepper struct {
	index     int
	Time      float64
	Direction StepDirection

	role  coordmap.AxisRole
	es    *endstop.Endstop
	begun bool

	lin   linearState
	tower towerState
	ext   extruderState
}

// Index returns the machine axis this stepper governs.
func (s *AxisStepper) Index() int {
	return s.index
}

// GetNextTime returns the stepper with the earliest real pending step,
// folding pairwise over the collection in axis order. The fold:
//
//  1. a non-positive Time (no step) loses to the other operand;
//  2. otherwise the strictly smaller Time wins, except that NaN
//     never wins against a defined value (comparisons against NaN are
//     always false, so the IsNaN check is what excludes it);
//  3. both non-positive: either may be returned.
//
// O(len(axes)) per call, no allocation. The selection itself never
// mutates stepper state.
func GetNextTime(axes []AxisStepper) *AxisStepper {
	best := &axes[0]
	for i := 1; i < len(axes); i++ {
		m2 := &axes[i]
		if best.Time <= 0 {
			best = m2
			continue
		}
		if m2.Time <= 0 {
			continue
		}
		if !(best.Time < m2.Time || math.IsNaN(m2.Time)) {
			best = m2
		}
	}
	return best
}

// InitAxisSteppers builds one stepper per machine axis for a line move
// and primes each with its first pending step. steppers must have
// exactly one slot per machine axis; slots are overwritten in place so
// the collection can be reused across moves.
func InitAxisSteppers(steppers []AxisStepper, useEndstops bool, m *coordmap.Machine, curPos []int, move LineMove) {
	cart0 := m.CartesianFromMechanical(curPos)
	for i := range steppers {
		s := &steppers[i]
		axis := &m.Axes[i]
		*s = AxisStepper{index: i, role: axis.Role, es: axis.Endstop, begun: true}
		switch axis.Role {
		case coordmap.RoleLinear:
			s.lin.beginLine(axis, cart0, move)
		case coordmap.RoleDeltaTower:
			s.tower.beginLine(axis, curPos[i], cart0, move)
		case coordmap.RoleExtruder:
			s.ext.begin(axis, move.Vel.E(), move.Duration)
		}
		s.NextStep(useEndstops)
	}
}

// InitAxisArcSteppers is the arc counterpart of InitAxisSteppers.
func InitAxisArcSteppers(steppers []AxisStepper, useEndstops bool, m *coordmap.Machine, curPos []int, move ArcMove) {
	for i := range steppers {
		s := &steppers[i]
		axis := &m.Axes[i]
		*s = AxisStepper{index: i, role: axis.Role, es: axis.Endstop, begun: true}
		switch axis.Role {
		case coordmap.RoleLinear:
			s.lin.beginArc(axis, curPos[i], move)
		case coordmap.RoleDeltaTower:
			s.tower.beginArc(axis, curPos[i], move)
		case coordmap.RoleExtruder:
			s.ext.begin(axis, move.ExtrudeVel, move.Duration)
		}
		s.NextStep(useEndstops)
	}
}

// NextStep recomputes Time and Direction for the step after the
// current one, using the axis's stepping rule. The initializers call
// it once to produce the first step; consumers call it once per
// consumed step, for the fired axis only.
//
// With useEndstops, a triggered endstop forces the no-step sentinel
// regardless of what the kinematic math would produce. Kinematic
// failure (unreachable target, zero velocity) reports the sentinel the
// same way; only calling NextStep on an unbegun stepper panics.
func (s *AxisStepper) NextStep(useEndstops bool) {
	if !s.begun {
		panic("motion: NextStep called before InitAxisSteppers/InitAxisArcSteppers")
	}
	if useEndstops && s.es != nil && s.es.Triggered() {
		s.Time = NoStepTime
		return
	}
	switch s.role {
	case coordmap.RoleLinear:
		s.Time, s.Direction = s.lin.nextStep()
	case coordmap.RoleDeltaTower:
		s.Time, s.Direction = s.tower.nextStep()
	case coordmap.RoleExtruder:
		s.Time, s.Direction = s.ext.nextStep()
	}
}

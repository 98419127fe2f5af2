// Package motion generates per-axis step pulse sequences for queued
// moves and merges them into one time-ordered stream.
//
// For every queued move, one AxisStepper is built per mechanical axis
// (each delta tower plus the extruder, or X/Y/Z plus the extruder on a
// cartesian machine). Each stepper answers "when, and in which
// direction, is my axis's next step"; GetNextTime picks the
// globally-earliest answer and NextStep recomputes only the axis that
// fired. The full step sequence is never materialized - only the next
// step per axis is held, the same lazy discipline as a k-way merge of
// sorted runs.
package motion

import "printipi-go-migration/pkg/vec"

// StepDirection is the mechanical direction of a step.
type StepDirection int8

const (
	StepBackward StepDirection = -1
	StepForward  StepDirection = 1
)

// StepDirFromSign maps the sign of a velocity to a direction.
func StepDirFromSign(v float64) StepDirection {
	if v < 0 {
		return StepBackward
	}
	return StepForward
}

// Signed returns -1 or 1.
func (d StepDirection) Signed() int {
	return int(d)
}

func (d StepDirection) String() string {
	if d == StepBackward {
		return "backward"
	}
	return "forward"
}

// NoStepTime is the sentinel for "no further step on this axis during
// this move". Any non-positive Time value means the same; NaN means
// the next step is currently unresolvable, which is a distinct state
// and never wins a merge against a defined time.
const NoStepTime = 0.0

// StepEvent is one consumed step: which axis fired, the move-relative
// time it is due, and its direction.
type StepEvent struct {
	Axis      int
	Time      float64
	Direction StepDirection
}

// LineMove is a straight-line move request: a cartesian velocity held
// for Duration seconds.
type LineMove struct {
	Vel      vec.Vec4
	Duration float64
}

// ArcMove is a circular move request. The effector traces
//
//	P(t) = Center + Radius*(U*cos(w*t) + V*sin(w*t))
//
// for Duration seconds, where U and V are orthonormal basis vectors of
// the arc plane and w is AngularVel (radians/second, sign selects the
// sweep direction). The extruder advances independently at ExtrudeVel.
type ArcMove struct {
	Center     vec.Vec3
	U, V       vec.Vec3
	Radius     float64
	AngularVel float64
	ExtrudeVel float64
	Duration   float64
}

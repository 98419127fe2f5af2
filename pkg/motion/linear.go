package motion

import (
	"math"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/vec"
)

// epsTheta guards the swept-angle search against re-selecting the
// step that just fired when the start position sits exactly on a step
// boundary.
const epsTheta = 1e-7

// linearState steps a cartesian axis: the axis position is one
// coordinate of the effector, scaled by steps/mm.
type linearState struct {
	arc      bool
	sps      float64
	duration float64

	// line
	vel      float64 // mm/s along this coordinate
	interval float64 // seconds per step
	count    int     // steps emitted so far

	// arc
	c        float64 // arc center, this coordinate
	amp      float64 // radius * hypot(u_c, v_c)
	effPhase float64 // phase, sweep-direction adjusted
	absW     float64 // |angular velocity|
	mech     int     // current mechanical step index
	swept    float64 // swept angle of the current pending step
}

func (st *linearState) beginLine(axis *coordmap.Axis, cart0 vec.Vec4, move LineMove) {
	*st = linearState{
		sps:      axis.StepsPerMM,
		duration: move.Duration,
		vel:      move.Vel[axis.Coord],
	}
	if st.vel != 0 {
		st.interval = 1 / (math.Abs(st.vel) * st.sps)
	}
}

func (st *linearState) beginArc(axis *coordmap.Axis, curMech int, move ArcMove) {
	uc := move.U[axis.Coord]
	vc := move.V[axis.Coord]
	*st = linearState{
		arc:      true,
		sps:      axis.StepsPerMM,
		duration: move.Duration,
		c:        move.Center[axis.Coord],
		amp:      move.Radius * math.Hypot(uc, vc),
		absW:     math.Abs(move.AngularVel),
		mech:     curMech,
	}
	// cos(w*t - phase) with w < 0 is cos(|w|*t + phase): solving in
	// the swept-angle domain just flips the phase sign.
	phase := math.Atan2(vc, uc)
	if move.AngularVel < 0 {
		phase = -phase
	}
	st.effPhase = phase
}

func (st *linearState) nextStep() (float64, StepDirection) {
	if st.arc {
		return st.nextArcStep()
	}
	if st.vel == 0 {
		return NoStepTime, StepForward
	}
	st.count++
	t := float64(st.count) * st.interval
	if t > st.duration {
		return NoStepTime, StepForward
	}
	return t, StepDirFromSign(st.vel)
}

func (st *linearState) nextArcStep() (float64, StepDirection) {
	if st.amp == 0 || st.absW == 0 {
		// Axis perpendicular to the arc plane, or no sweep: it never
		// moves during this arc.
		return NoStepTime, StepForward
	}
	dPlus := float64(st.mech+1)/st.sps - st.c
	dMinus := float64(st.mech-1)/st.sps - st.c
	sPlus := nextArcSwept(st.swept, st.effPhase, dPlus/st.amp)
	sMinus := nextArcSwept(st.swept, st.effPhase, dMinus/st.amp)

	s, dir := sPlus, StepForward
	if sMinus < s {
		s, dir = sMinus, StepBackward
	}
	if math.IsInf(s, 1) || s > st.absW*st.duration {
		return NoStepTime, StepForward
	}
	st.swept = s
	st.mech += dir.Signed()
	return s / st.absW, dir
}

// nextArcSwept returns the smallest swept angle past cur at which
// cos(s - phase) equals ratio, or +Inf when that value is never
// reached.
func nextArcSwept(cur, phase, ratio float64) float64 {
	if math.Abs(ratio) > 1 {
		return math.Inf(1)
	}
	delta := math.Acos(ratio)
	best := math.Inf(1)
	for _, base := range [2]float64{phase + delta, phase - delta} {
		k := math.Ceil((cur + epsTheta - base) / (2 * math.Pi))
		if cand := base + 2*math.Pi*k; cand < best {
			best = cand
		}
	}
	return best
}

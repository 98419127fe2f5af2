package motion

import (
	"math"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/vec"
)

// towerState steps a delta tower carriage. The carriage height h
// tracks the effector P through an arm of fixed length L:
//
//	h = P.z + sqrt(L^2 - (P.x-tx)^2 - (P.y-ty)^2)
//
// For a line move h(t) = H is a quadratic in t and is solved in closed
// form. For an arc there is no closed form; crossings are bracketed by
// a forward scan and resolved by bisection.
type towerState struct {
	arc      bool
	sps      float64
	duration float64
	mech     int     // current carriage step index
	t        float64 // time of the current pending step

	// line
	vx, vy, vz float64
	dx0, dy0   float64 // start offset from the tower
	z0         float64
	arm2       float64

	// arc
	tx, ty float64
	armLen float64
	center vec.Vec3
	u, v   vec.Vec3
	radius float64
	w      float64
}

func (st *towerState) beginLine(axis *coordmap.Axis, curMech int, cart0 vec.Vec4, move LineMove) {
	*st = towerState{
		sps:      axis.StepsPerMM,
		duration: move.Duration,
		mech:     curMech,
		vx:       move.Vel.X(),
		vy:       move.Vel.Y(),
		vz:       move.Vel.Z(),
		dx0:      cart0.X() - axis.TowerX,
		dy0:      cart0.Y() - axis.TowerY,
		z0:       cart0.Z(),
		arm2:     axis.ArmLen * axis.ArmLen,
	}
}

func (st *towerState) beginArc(axis *coordmap.Axis, curMech int, move ArcMove) {
	*st = towerState{
		arc:      true,
		sps:      axis.StepsPerMM,
		duration: move.Duration,
		mech:     curMech,
		tx:       axis.TowerX,
		ty:       axis.TowerY,
		armLen:   axis.ArmLen,
		center:   move.Center,
		u:        move.U,
		v:        move.V,
		radius:   move.Radius,
		w:        move.AngularVel,
	}
}

func (st *towerState) nextStep() (float64, StepDirection) {
	if st.arc {
		return st.nextArcStep()
	}
	if st.vx == 0 && st.vy == 0 && st.vz == 0 {
		return NoStepTime, StepForward
	}

	tPlus := st.lineCrossing(st.mech + 1)
	tMinus := st.lineCrossing(st.mech - 1)
	t, dir := tPlus, StepForward
	if tMinus < t {
		t, dir = tMinus, StepBackward
	}
	if math.IsInf(t, 1) || t > st.duration {
		return NoStepTime, StepForward
	}
	st.t = t
	st.mech += dir.Signed()
	return t, dir
}

// lineCrossing returns the earliest time past the current step at
// which the carriage height reaches the target step index, or +Inf.
// Squaring the arm constraint introduces a mirror solution with the
// carriage below the effector; those roots are filtered out.
func (st *towerState) lineCrossing(target int) float64 {
	h := float64(target) / st.sps
	a0 := h - st.z0
	a := st.vx*st.vx + st.vy*st.vy + st.vz*st.vz
	b := 2 * (st.dx0*st.vx + st.dy0*st.vy - a0*st.vz)
	c := a0*a0 + st.dx0*st.dx0 + st.dy0*st.dy0 - st.arm2

	disc := b*b - 4*a*c
	if disc < 0 {
		return math.Inf(1)
	}
	sq := math.Sqrt(disc)
	best := math.Inf(1)
	for _, root := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if root <= st.t+epsTheta {
			continue
		}
		// Carriage above the effector.
		if a0-st.vz*root < 0 {
			continue
		}
		if root < best {
			best = root
		}
	}
	return best
}

// arcHeight evaluates the carriage height along the arc at time t.
// NaN when the effector is out of the arm's reach.
func (st *towerState) arcHeight(t float64) float64 {
	theta := st.w * t
	p := st.center.
		Add(st.u.Scale(st.radius * math.Cos(theta))).
		Add(st.v.Scale(st.radius * math.Sin(theta)))
	return coordmap.CarriageHeight(p, st.tx, st.ty, st.armLen)
}

// arcScanSlices is the bracketing resolution for arc crossings: the
// scan samples the remaining sweep at ~1.4 degree intervals.
const arcScanSlices = 256

func (st *towerState) nextArcStep() (float64, StepDirection) {
	if st.w == 0 {
		return NoStepTime, StepForward
	}
	dt := (2 * math.Pi / math.Abs(st.w)) / arcScanSlices

	tPlus, okPlus := st.arcCrossing(float64(st.mech+1)/st.sps, dt)
	tMinus, okMinus := st.arcCrossing(float64(st.mech-1)/st.sps, dt)
	if !okPlus || !okMinus {
		// The effector left the arm's reach inside the scan window:
		// the next step is unresolvable right now.
		return math.NaN(), StepForward
	}

	t, dir := tPlus, StepForward
	if tMinus < t {
		t, dir = tMinus, StepBackward
	}
	if math.IsInf(t, 1) {
		return NoStepTime, StepForward
	}
	st.t = t
	st.mech += dir.Signed()
	return t, dir
}

// arcCrossing brackets and bisects the first time past the current
// step at which the carriage height crosses h. Returns +Inf, true when
// the height is never reached inside the move; ok=false when the arc
// leaves the arm's reach before a crossing is found.
func (st *towerState) arcCrossing(h, dt float64) (float64, bool) {
	prev := st.t + epsTheta
	if prev >= st.duration {
		return math.Inf(1), true
	}
	f0 := st.arcHeight(prev) - h
	if math.IsNaN(f0) {
		return 0, false
	}
	for prev < st.duration {
		next := prev + dt
		if next > st.duration {
			next = st.duration
		}
		f1 := st.arcHeight(next) - h
		if math.IsNaN(f1) {
			return 0, false
		}
		if f0*f1 <= 0 {
			return bisect(st.arcHeightMinus(h), prev, next), true
		}
		prev, f0 = next, f1
	}
	return math.Inf(1), true
}

func (st *towerState) arcHeightMinus(h float64) func(float64) float64 {
	return func(t float64) float64 { return st.arcHeight(t) - h }
}

// bisect resolves a bracketed root of f to float64 resolution.
func bisect(f func(float64) float64, lo, hi float64) float64 {
	flo := f(lo)
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		fmid := f(mid)
		if fmid == 0 {
			return mid
		}
		if (flo < 0) == (fmid < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

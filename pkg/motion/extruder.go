package motion

import (
	"math"

	"printipi-go-migration/pkg/coordmap"
)

// extruderState steps the extrusion axis at a constant filament rate.
// Lines use the E component of the velocity vector; arcs use the
// independent extrusion velocity.
type extruderState struct {
	vel      float64
	interval float64
	duration float64
	count    int
}

func (st *extruderState) begin(axis *coordmap.Axis, extVel, duration float64) {
	*st = extruderState{
		vel:      extVel,
		duration: duration,
	}
	if extVel != 0 {
		st.interval = 1 / (math.Abs(extVel) * axis.StepsPerMM)
	}
}

func (st *extruderState) nextStep() (float64, StepDirection) {
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

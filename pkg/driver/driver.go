// Package driver maps fired axis steps onto driver pin pulses and
// pumps a motion session into a hardware scheduler.
package driver

import (
	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/hwsched"
	"printipi-go-migration/pkg/log"
	"printipi-go-migration/pkg/motion"
)

// DefaultPulseWidth satisfies common step/dir driver ICs (A4988,
// DRV8825, TMC step inputs all need >= 1us).
const DefaultPulseWidth = 2e-6

// StepDriver describes one axis's step/dir pin pair and pulse shape.
// The mapping from a fired step to pin events is a pure function of
// direction; all timing feasibility lives in the scheduler.
type StepDriver struct {
	StepPin    int
	DirPin     int
	PulseWidth float64
	InvertStep bool
	InvertDir  bool
}

// FromAxis builds the driver for a configured axis.
func FromAxis(a *coordmap.Axis) StepDriver {
	return StepDriver{
		StepPin:    a.StepPin,
		DirPin:     a.DirPin,
		PulseWidth: DefaultPulseWidth,
		InvertStep: a.InvertStep,
		InvertDir:  a.InvertDir,
	}
}

// StepEvents returns the pin event sequence for one step at the given
// absolute time: direction level, step edge assert, step edge release.
func (d *StepDriver) StepEvents(absTime float64, dir motion.StepDirection) [3]hwsched.OutputEvent {
	dirLevel := dir == motion.StepForward
	if d.InvertDir {
		dirLevel = !dirLevel
	}
	stepHigh := !d.InvertStep
	width := d.PulseWidth
	if width <= 0 {
		width = DefaultPulseWidth
	}
	return [3]hwsched.OutputEvent{
		{Pin: d.DirPin, State: dirLevel, Time: absTime},
		{Pin: d.StepPin, State: stepHigh, Time: absTime},
		{Pin: d.StepPin, State: !stepHigh, Time: absTime + width},
	}
}

// DriversForMachine builds one StepDriver per machine axis, in axis
// order.
func DriversForMachine(m *coordmap.Machine) []StepDriver {
	drivers := make([]StepDriver, m.NumAxes())
	for i := range m.Axes {
		drivers[i] = FromAxis(&m.Axes[i])
	}
	return drivers
}

// Run drains the session's merged step stream into the scheduler.
// Each fired step is shifted by baseTime, pulled forward to the
// scheduler's feasible time, mapped to pin events, and queued. Returns
// the number of steps consumed.
func Run(s *motion.Session, drivers []StepDriver, sched hwsched.HardwareScheduler, baseTime float64) uint64 {
	logger := log.GetLogger("driver")
	var steps uint64
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		t := sched.SchedTime(baseTime + ev.Time)
		for _, out := range drivers[ev.Axis].StepEvents(t, ev.Direction) {
			sched.Queue(out)
		}
		steps++
	}
	logger.WithField("steps", steps).Debug("move drained")
	return steps
}

// Package hwsched defines the hardware scheduler boundary: the core
// hands it timestamped pin events and the scheduler gets them onto
// real pins at (or as close as it can to) the requested instants.
package hwsched

import "fmt"

// OutputEvent is one discrete hardware instruction: drive Pin to State
// at the absolute time Time (seconds on the scheduler's clock).
// Immutable once constructed; produced in time order and consumed
// exactly once.
type OutputEvent struct {
	Pin   int
	State bool
	Time  float64
}

func (e OutputEvent) String() string {
	level := 0
	if e.State {
		level = 1
	}
	return fmt.Sprintf("pin %d -> %d @ %.6f", e.Pin, level, e.Time)
}

// HardwareScheduler accepts output events for dispatch. Queue may
// block until the event's time is imminent; a degenerate
// implementation may apply events immediately. Failure is not modeled
// at this boundary - an accepted event is always eventually applied.
type HardwareScheduler interface {
	// Queue accepts one event for dispatch at its scheduled time.
	Queue(e OutputEvent)

	// QueuePwm drives pin at the given duty cycle (0.0-1.0), using
	// maxPeriod as the period upper bound where the scheduling
	// algorithm cares. A no-op is a valid implementation.
	QueuePwm(pin int, ratio, maxPeriod float64)

	// SchedTime returns the earliest time at which an event desired at
	// t can actually be honored. Identity is a valid degenerate
	// implementation; real schedulers account for queue depth and
	// dispatch latency.
	SchedTime(t float64) float64
}

package hwsched

// PinSetter drives one output pin to a logical level.
type PinSetter interface {
	Set(pin int, state bool)
}

// DumbScheduler is the deliberately simplified reference scheduler: it
// applies every event immediately through the PinSetter, ignores PWM
// requests, and reports every requested time as feasible.
type DumbScheduler struct {
	Pins PinSetter
}

// NewDumb creates a DumbScheduler over the given pins. A nil setter
// discards events.
func NewDumb(pins PinSetter) *DumbScheduler {
	return &DumbScheduler{Pins: pins}
}

// Queue applies the event immediately.
func (d *DumbScheduler) Queue(e OutputEvent) {
	if d.Pins != nil {
		d.Pins.Set(e.Pin, e.State)
	}
}

// QueuePwm is a no-op.
func (d *DumbScheduler) QueuePwm(pin int, ratio, maxPeriod float64) {}

// SchedTime is the identity.
func (d *DumbScheduler) SchedTime(t float64) float64 {
	return t
}

// RecordingScheduler captures queued events in arrival order; used by
// tests and dry runs.
type RecordingScheduler struct {
	Events []OutputEvent
	Pwm    []PwmRequest

	// Latency is added by SchedTime to mimic a busy hardware queue.
	Latency float64
}

// PwmRequest is one captured QueuePwm call.
type PwmRequest struct {
	Pin       int
	Ratio     float64
	MaxPeriod float64
}

// Queue records the event.
func (r *RecordingScheduler) Queue(e OutputEvent) {
	r.Events = append(r.Events, e)
}

// QueuePwm records the request.
func (r *RecordingScheduler) QueuePwm(pin int, ratio, maxPeriod float64) {
	r.Pwm = append(r.Pwm, PwmRequest{Pin: pin, Ratio: ratio, MaxPeriod: maxPeriod})
}

// SchedTime adds the configured latency.
func (r *RecordingScheduler) SchedTime(t float64) float64 {
	return t + r.Latency
}

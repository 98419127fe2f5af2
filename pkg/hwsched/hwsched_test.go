package hwsched

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"printipi-go-migration/pkg/errors"
)

type fakePins struct {
	sets []OutputEvent
}

func (f *fakePins) Set(pin int, state bool) {
	f.sets = append(f.sets, OutputEvent{Pin: pin, State: state})
}

func TestDumbSchedulerAppliesImmediately(t *testing.T) {
	pins := &fakePins{}
	d := NewDumb(pins)

	d.Queue(OutputEvent{Pin: 17, State: true, Time: 123.0})
	d.Queue(OutputEvent{Pin: 17, State: false, Time: 124.0})

	if len(pins.sets) != 2 {
		t.Fatalf("applied %d events, want 2", len(pins.sets))
	}
	if !pins.sets[0].State || pins.sets[1].State {
		t.Errorf("pin states = %v, %v, want true, false", pins.sets[0].State, pins.sets[1].State)
	}
}

func TestDumbSchedTimeIdentity(t *testing.T) {
	d := NewDumb(nil)
	for _, tt := range []float64{0, 1.5, 1e6} {
		if got := d.SchedTime(tt); got != tt {
			t.Errorf("SchedTime(%v) = %v, want identity", tt, got)
		}
	}
}

func TestDumbNilPins(t *testing.T) {
	d := NewDumb(nil)
	d.Queue(OutputEvent{Pin: 1, State: true}) // must not panic
	d.QueuePwm(5, 0.4, 0.01)
}

func TestRecordingScheduler(t *testing.T) {
	r := &RecordingScheduler{Latency: 0.5}

	r.Queue(OutputEvent{Pin: 2, State: true, Time: 1.0})
	r.QueuePwm(5, 0.4, 0.01)

	if len(r.Events) != 1 || r.Events[0].Pin != 2 {
		t.Fatalf("events = %v", r.Events)
	}
	if len(r.Pwm) != 1 || r.Pwm[0].Ratio != 0.4 {
		t.Fatalf("pwm = %v", r.Pwm)
	}
	if got := r.SchedTime(1.0); got != 1.5 {
		t.Errorf("SchedTime(1.0) = %v, want 1.5", got)
	}
}

func TestSerialWireFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerialWriter(&buf, 0.002, nil)

	s.Queue(OutputEvent{Pin: 17, State: true, Time: 0.00125})
	s.Queue(OutputEvent{Pin: 17, State: false, Time: 0.0013})
	s.QueuePwm(5, 0.4, 0.01)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want 3: %q", len(lines), buf.String())
	}
	if lines[0] != "E 17 1 0.001250000" {
		t.Errorf("event line = %q", lines[0])
	}
	if lines[1] != "E 17 0 0.001300000" {
		t.Errorf("event line = %q", lines[1])
	}
	if lines[2] != "P 5 0.400000 0.010000" {
		t.Errorf("pwm line = %q", lines[2])
	}
}

func TestSerialSchedTime(t *testing.T) {
	var buf bytes.Buffer

	// Without a clock, SchedTime just adds the link latency.
	s := NewSerialWriter(&buf, 0.002, nil)
	if got := s.SchedTime(1.0); got != 1.002 {
		t.Errorf("SchedTime(1.0) = %v, want 1.002", got)
	}

	// With a clock, past times are pulled up to now + latency.
	now := 5.0
	s = NewSerialWriter(&buf, 0.002, func() float64 { return now })
	if got := s.SchedTime(1.0); got != 5.002 {
		t.Errorf("SchedTime(1.0) = %v, want 5.002", got)
	}
	if got := s.SchedTime(10.0); got != 10.0 {
		t.Errorf("SchedTime(10.0) = %v, want 10.0", got)
	}
}

func TestPwmPeriodBounds(t *testing.T) {
	tests := []struct {
		maxPeriod float64
		want      time.Duration
	}{
		{0, defaultPwmPeriod},  // no bound
		{-1, defaultPwmPeriod}, // nonsense bound
		{1, defaultPwmPeriod},  // bound above the default
		{0.002, 2 * time.Millisecond},
		{1e-12, minPwmPeriod}, // sub-nanosecond bound must not spin
		{1e-9, minPwmPeriod},
	}
	for _, tt := range tests {
		if got := pwmPeriod(tt.maxPeriod); got != tt.want {
			t.Errorf("pwmPeriod(%g) = %v, want %v", tt.maxPeriod, got, tt.want)
		}
	}
}

func TestOpenSerialMissingDevice(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "ttyACM0")
	_, err := OpenSerial(DefaultSerialConfig(dev), nil)
	if err == nil {
		t.Fatal("OpenSerial on a missing device succeeded")
	}
	if !errors.IsHardware(err) {
		t.Errorf("error %v is not a hardware error", err)
	}
}

func TestOutputEventString(t *testing.T) {
	e := OutputEvent{Pin: 3, State: true, Time: 0.5}
	if got := e.String(); got != "pin 3 -> 1 @ 0.500000" {
		t.Errorf("String() = %q", got)
	}
}

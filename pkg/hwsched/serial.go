package hwsched

import (
	"fmt"
	"io"
	"sync"

	"github.com/tarm/serial"

	"printipi-go-migration/pkg/errors"
	"printipi-go-migration/pkg/log"
)

// SerialConfig holds the serial link configuration.
type SerialConfig struct {
	// Device path (e.g., "/dev/ttyACM0").
	Device string

	// Baud rate.
	Baud int

	// Latency is the one-way link delay reported through SchedTime.
	Latency float64
}

// DefaultSerialConfig returns the standard MCU link settings.
func DefaultSerialConfig(device string) SerialConfig {
	return SerialConfig{
		Device:  device,
		Baud:    250000,
		Latency: 0.002,
	}
}

// SerialScheduler forwards events over a serial link to an MCU that
// owns the actual pin timing. Events travel as one ASCII line each:
//
//	E <pin> <0|1> <time>
//	P <pin> <ratio> <maxPeriod>
//
// The MCU buffers by scheduled time, so Queue never blocks beyond the
// port write.
type SerialScheduler struct {
	mu      sync.Mutex
	w       io.Writer
	port    *serial.Port
	latency float64
	clock   func() float64
	logger  *log.Logger
}

// OpenSerial opens the MCU link.
func OpenSerial(cfg SerialConfig, clock func() float64) (*SerialScheduler, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, errors.HardwareSerialError(cfg.Device, err)
	}
	return &SerialScheduler{
		w:       port,
		port:    port,
		latency: cfg.Latency,
		clock:   clock,
		logger:  log.GetLogger("serial"),
	}, nil
}

// NewSerialWriter wraps an arbitrary writer in the event line
// protocol; used by tests and by pipes to simulator processes.
func NewSerialWriter(w io.Writer, latency float64, clock func() float64) *SerialScheduler {
	return &SerialScheduler{
		w:       w,
		latency: latency,
		clock:   clock,
		logger:  log.GetLogger("serial"),
	}
}

// Queue writes the event line to the link.
func (s *SerialScheduler) Queue(e OutputEvent) {
	state := 0
	if e.State {
		state = 1
	}
	s.mu.Lock()
	_, err := fmt.Fprintf(s.w, "E %d %d %.9f\n", e.Pin, state, e.Time)
	s.mu.Unlock()
	if err != nil {
		s.logger.WithError(err).Error("event write failed")
	}
}

// QueuePwm writes the PWM request line to the link.
func (s *SerialScheduler) QueuePwm(pin int, ratio, maxPeriod float64) {
	s.mu.Lock()
	_, err := fmt.Fprintf(s.w, "P %d %.6f %.6f\n", pin, ratio, maxPeriod)
	s.mu.Unlock()
	if err != nil {
		s.logger.WithError(err).Error("pwm write failed")
	}
}

// SchedTime accounts for the link latency against the host clock.
func (s *SerialScheduler) SchedTime(t float64) float64 {
	if s.clock == nil {
		return t + s.latency
	}
	earliest := s.clock() + s.latency
	if t < earliest {
		return earliest
	}
	return t
}

// Close closes the underlying port.
func (s *SerialScheduler) Close() error {
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}

package hwsched

import (
	"sync"
	"time"

	gpio "github.com/aamcrae/gpio"

	"printipi-go-migration/pkg/errors"
	"printipi-go-migration/pkg/log"
)

// defaultPwmPeriod is used when QueuePwm gives no usable period bound.
const defaultPwmPeriod = 10 * time.Millisecond

// minPwmPeriod bounds how fast the software PWM loop may cycle; a
// shorter period would degenerate into a busy spin on the sysfs write.
const minPwmPeriod = 100 * time.Microsecond

// pwmPeriod converts a QueuePwm period bound in seconds to the actual
// software PWM period.
func pwmPeriod(maxPeriod float64) time.Duration {
	period := defaultPwmPeriod
	if p := time.Duration(maxPeriod * float64(time.Second)); maxPeriod > 0 && p < period {
		period = p
	}
	if period < minPwmPeriod {
		period = minPwmPeriod
	}
	return period
}

// GPIOScheduler dispatches output events to sysfs GPIO pins. Queue
// waits wall-clock until each event's scheduled instant, so the caller
// loop paces itself against real time; PWM requests run a software
// duty-cycle loop per pin.
type GPIOScheduler struct {
	mu      sync.Mutex
	pins    map[int]*gpio.Gpio
	pwm     map[int]*softPwm
	start   time.Time
	latency float64
	logger  *log.Logger
}

// NewGPIO creates a scheduler whose event times are relative to now.
// latency is the fixed dispatch overhead reported through SchedTime.
func NewGPIO(latency float64) *GPIOScheduler {
	return &GPIOScheduler{
		pins:    make(map[int]*gpio.Gpio),
		pwm:     make(map[int]*softPwm),
		start:   time.Now(),
		latency: latency,
		logger:  log.GetLogger("gpio"),
	}
}

func (g *GPIOScheduler) pin(n int) *gpio.Gpio {
	if p, ok := g.pins[n]; ok {
		return p
	}
	p, err := gpio.OutputPin(n)
	if err != nil {
		g.logger.WithError(errors.HardwarePinError(n, err)).Error("pin export failed")
		return nil
	}
	g.pins[n] = p
	return p
}

// Queue waits until the event's scheduled time and drives the pin.
func (g *GPIOScheduler) Queue(e OutputEvent) {
	due := g.start.Add(time.Duration(e.Time * float64(time.Second)))
	if d := time.Until(due); d > 0 {
		time.Sleep(d)
	}
	g.mu.Lock()
	p := g.pin(e.Pin)
	g.mu.Unlock()
	if p == nil {
		return
	}
	level := 0
	if e.State {
		level = 1
	}
	if err := p.Set(level); err != nil {
		g.logger.WithError(errors.HardwarePinError(e.Pin, err)).Error("pin write failed")
	}
}

// QueuePwm runs (or retunes) a software PWM loop on the pin.
func (g *GPIOScheduler) QueuePwm(pin int, ratio, maxPeriod float64) {
	period := pwmPeriod(maxPeriod)
	g.mu.Lock()
	defer g.mu.Unlock()
	if pw, ok := g.pwm[pin]; ok {
		pw.set(period, ratio)
		return
	}
	p := g.pin(pin)
	if p == nil {
		return
	}
	pw := newSoftPwm(p)
	pw.set(period, ratio)
	g.pwm[pin] = pw
}

// SchedTime accounts for the fixed dispatch latency.
func (g *GPIOScheduler) SchedTime(t float64) float64 {
	earliest := time.Since(g.start).Seconds() + g.latency
	if t < earliest {
		return earliest
	}
	return t
}

// Close stops PWM loops and releases all exported pins.
func (g *GPIOScheduler) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, pw := range g.pwm {
		pw.close()
	}
	for _, p := range g.pins {
		p.Close()
	}
	g.pins = make(map[int]*gpio.Gpio)
	g.pwm = make(map[int]*softPwm)
}

// softPwm toggles one pin from a background goroutine. Parameter
// changes take effect at the next period boundary.
type softPwm struct {
	pin *gpio.Gpio
	c   chan pwmParams
}

type pwmParams struct {
	period time.Duration
	ratio  float64
	stop   bool
}

func newSoftPwm(pin *gpio.Gpio) *softPwm {
	p := &softPwm{pin: pin, c: make(chan pwmParams, 1)}
	go p.run()
	return p
}

func (p *softPwm) set(period time.Duration, ratio float64) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	select {
	case p.c <- pwmParams{period: period, ratio: ratio}:
	default:
		// A pending retune is superseded.
		select {
		case <-p.c:
		default:
		}
		p.c <- pwmParams{period: period, ratio: ratio}
	}
}

func (p *softPwm) close() {
	p.c <- pwmParams{stop: true}
}

func (p *softPwm) run() {
	period := defaultPwmPeriod
	ratio := 0.0
	for {
		select {
		case m := <-p.c:
			if m.stop {
				p.pin.Set(0)
				return
			}
			period, ratio = m.period, m.ratio
		default:
		}
		on := time.Duration(float64(period) * ratio)
		off := period - on
		if on > 0 {
			p.pin.Set(1)
			time.Sleep(on)
		}
		if off > 0 {
			p.pin.Set(0)
			time.Sleep(off)
		}
	}
}

// printipi-go drives stepper motors for a cartesian or delta machine
// directly from the host process: it loads a machine description,
// generates step events for a sequence of moves and hands them to the
// selected hardware scheduler.
//
// Usage:
//
//	printipi-go -config machine.cfg [options]
//
// Options:
//
//	-config string    Machine configuration file (required)
//	-monitor string   Status server address (overrides [monitor] addr)
//	-trace            Enable debug tracing
//	-logfile string   Log file path (default: stdout)
//	-realtime         Promote the process (mlockall + SCHED_FIFO)
//	-feedrate float   Demo move feedrate in mm/s (default 20)
//
// Examples:
//
//	# Dry run against the dumb scheduler
//	printipi-go -config machine.cfg
//
//	# Drive GPIO pins at realtime priority with telemetry
//	printipi-go -config machine.cfg -realtime -monitor :7125
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	gpio "github.com/aamcrae/gpio"

	"printipi-go-migration/pkg/config"
	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/driver"
	"printipi-go-migration/pkg/errors"
	"printipi-go-migration/pkg/hwsched"
	"printipi-go-migration/pkg/log"
	"printipi-go-migration/pkg/monitor"
	"printipi-go-migration/pkg/motion"
	"printipi-go-migration/pkg/realtime"
	"printipi-go-migration/pkg/vec"
)

func main() {
	configFile := flag.String("config", "", "Machine configuration file (required)")
	monitorAddr := flag.String("monitor", "", "Status server address (overrides config)")
	trace := flag.Bool("trace", false, "Enable debug tracing")
	logFile := flag.String("logfile", "", "Log file path (default: stdout)")
	useRealtime := flag.Bool("realtime", false, "Promote process (mlockall + SCHED_FIFO)")
	feedrate := flag.Float64("feedrate", 20, "Demo move feedrate in mm/s")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -config is required\n")
		flag.Usage()
		os.Exit(1)
	}

	logger := log.GetLogger("printipi")
	if *trace {
		logger.SetLevel(log.DEBUG)
	}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetWriter(f)
		logger.SetColorize(false)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("config: %v", err)
		os.Exit(1)
	}

	m := cfg.Machine
	logger.Info("machine: %s, %d axes", m.Type, m.NumAxes())
	for _, a := range m.Axes {
		logger.Info("  %s: role=%s step_pin=%d dir_pin=%d steps/mm=%.1f",
			a.Name, a.Role, a.StepPin, a.DirPin, a.StepsPerMM)
	}
	logger.Info("scheduler: %s", cfg.Scheduler.Type)

	if *useRealtime {
		if err := realtime.Setup(realtime.DefaultConfig()); err != nil {
			logger.Warn("realtime promotion failed: %v", err)
		} else if realtime.Supported() {
			logger.Info("running at realtime priority")
		}
	}

	sched, closeSched, err := buildScheduler(cfg, logger)
	if err != nil {
		logger.Error("scheduler: %v", err)
		os.Exit(1)
	}
	defer closeSched()

	// Endstop inputs live on the same GPIO bank the scheduler drives;
	// a dry run against the dumb or serial scheduler has no pins to
	// read, so moves there run unguarded.
	useEndstops := false
	if cfg.Scheduler.Type == "gpio" {
		var closeInputs func()
		useEndstops, closeInputs = wireEndstops(m, logger)
		defer closeInputs()
	}

	session := motion.NewSession(m)
	tracker := monitor.NewTracker(m)

	addr := cfg.MonitorAddr
	if *monitorAddr != "" {
		addr = *monitorAddr
	}
	var mon *monitor.Server
	if addr != "" {
		mon = monitor.New(monitor.Config{Addr: addr, Source: tracker})
		go func() {
			if err := mon.Start(); err != nil {
				logger.Warn("monitor: %v", err)
			}
		}()
		defer mon.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	doneCh := make(chan struct{})
	go func() {
		defer func() {
			if he := errors.RecoverPanic(); he != nil {
				logger.Error("move sequence aborted: %v", he)
			}
			close(doneCh)
		}()
		runDemo(session, m.NumAxes(), sched, tracker, *feedrate, useEndstops, logger)
	}()

	select {
	case <-sigCh:
		logger.Info("interrupted, shutting down")
	case <-doneCh:
		logger.Info("done: %d steps total", session.TotalSteps())
	}
}

// buildScheduler picks the hardware scheduler named in the config.
func buildScheduler(cfg *config.Config, logger *log.Logger) (hwsched.HardwareScheduler, func(), error) {
	switch cfg.Scheduler.Type {
	case "dumb":
		return hwsched.NewDumb(logPins{logger}), func() {}, nil
	case "gpio":
		g := hwsched.NewGPIO(cfg.Scheduler.Latency)
		return g, g.Close, nil
	case "serial":
		sc := hwsched.DefaultSerialConfig(cfg.Scheduler.Device)
		sc.Baud = cfg.Scheduler.Baud
		if cfg.Scheduler.Latency > 0 {
			sc.Latency = cfg.Scheduler.Latency
		}
		start := time.Now()
		s, err := hwsched.OpenSerial(sc, func() float64 {
			return time.Since(start).Seconds()
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown scheduler type %q", cfg.Scheduler.Type)
}

// logPins satisfies hwsched.PinSetter by tracing pin writes, which
// makes the dumb scheduler useful as a dry-run backend.
type logPins struct {
	logger *log.Logger
}

func (p logPins) Set(pin int, state bool) {
	v := 0
	if state {
		v = 1
	}
	p.logger.Debug("pin %d <- %d", pin, v)
}

// wireEndstops opens a GPIO input for each configured endstop switch
// so moves can honor them. Returns whether any switch was wired and a
// closer for the opened pins.
func wireEndstops(m *coordmap.Machine, logger *log.Logger) (bool, func()) {
	var pins []*gpio.Gpio
	for i := range m.Axes {
		es := m.Axes[i].Endstop
		if es == nil {
			continue
		}
		p, err := gpio.Pin(es.GetPin())
		if err != nil {
			logger.Warn("endstop %s: %v", es.GetName(), err)
			continue
		}
		es.BindLevel(p.Get)
		logger.Info("endstop %s on pin %d", es.GetName(), es.GetPin())
		pins = append(pins, p)
	}
	return len(pins) > 0, func() {
		for _, p := range pins {
			p.Close()
		}
	}
}

// runDemo exercises the motion pipeline: a straight move out, an arc
// and a straight move home. Moves run back to back against the
// scheduler clock.
func runDemo(session *motion.Session, numAxes int, sched hwsched.HardwareScheduler,
	tracker *monitor.Tracker, feedrate float64, useEndstops bool, logger *log.Logger) {

	drivers := driver.DriversForMachine(session.Machine())
	pos := make([]int, numAxes)
	base := 0.0

	runMove := func(name string, begin func([]int)) {
		begin(pos)
		steps := driver.Run(session, drivers, sched, base)
		copy(pos, session.Position())
		tracker.Update(session)
		logger.Info("%s: %d steps", name, steps)
	}

	// 20mm out along X.
	dist := 20.0
	dur := dist / feedrate
	runMove("line +x", func(p []int) {
		session.BeginLine(p, motion.LineMove{
			Vel:      vec.Vec4{feedrate, 0, 0, 0},
			Duration: dur,
		}, useEndstops)
	})
	base += dur

	// Half circle back to the origin through +Y.
	r := dist / 2
	w := feedrate / r
	arcDur := math.Pi / w
	runMove("arc", func(p []int) {
		session.BeginArc(p, motion.ArcMove{
			Center:     vec.Vec3{r, 0, 0},
			U:          vec.Vec3{1, 0, 0},
			V:          vec.Vec3{0, 1, 0},
			Radius:     r,
			AngularVel: w,
			Duration:   arcDur,
		}, useEndstops)
	})
	base += arcDur

	// 5mm lift on Z.
	zDur := 5.0 / feedrate
	runMove("line +z", func(p []int) {
		session.BeginLine(p, motion.LineMove{
			Vel:      vec.Vec4{0, 0, feedrate, 0},
			Duration: zDur,
		}, useEndstops)
	})
}

// Package config loads the machine configuration file: kinematic
// geometry, per-axis pin assignments and the hardware scheduler
// selection.
//
// The file is ini-style, one section per concern:
//
//	[machine]
//	type=delta              # cartesian or delta
//
//	[delta]
//	radius=100
//	arm=250
//	steps_per_mm=80
//	e_steps_per_mm=100
//
//	[a]                     # one section per axis (a,b,c,e / x,y,z,e)
//	step_pin=2
//	dir_pin=3
//	endstop_pin=22          # optional
//
//	[scheduler]
//	type=gpio               # dumb, gpio or serial
//	device=/dev/ttyACM0     # serial only
//
//	[monitor]
//	addr=:7125              # optional status server
package config

import (
	"github.com/aamcrae/config"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/endstop"
	"printipi-go-migration/pkg/errors"
)

// SchedulerConfig selects and tunes the hardware scheduler.
type SchedulerConfig struct {
	Type    string
	Device  string
	Baud    int
	Latency float64
}

// Config is the fully-validated machine configuration.
type Config struct {
	Machine     *coordmap.Machine
	Scheduler   SchedulerConfig
	MonitorAddr string
}

// Load reads and validates a machine configuration file.
func Load(path string) (*Config, error) {
	conf, err := config.ParseFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigSection, "cannot read config file")
	}
	return build(conf)
}

func build(conf *config.Config) (*Config, error) {
	ms := conf.GetSection("machine")
	if ms == nil {
		return nil, errors.ConfigSectionError("machine")
	}
	machineType, err := ms.GetArg("type")
	if err != nil {
		return nil, errors.ConfigOptionError("machine", "type")
	}

	var m *coordmap.Machine
	switch machineType {
	case "cartesian":
		m, err = buildCartesian(conf)
	case "delta":
		m, err = buildDelta(conf)
	default:
		return nil, errors.ConfigValidationError("machine", "type",
			"must be cartesian or delta")
	}
	if err != nil {
		return nil, err
	}
	if err := applyAxisSections(conf, m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValidation, "invalid machine geometry")
	}

	cfg := &Config{Machine: m}
	if err := applyScheduler(conf, cfg); err != nil {
		return nil, err
	}
	if mon := conf.GetSection("monitor"); mon != nil {
		if addr, err := mon.GetArg("addr"); err == nil {
			cfg.MonitorAddr = addr
		}
	}
	return cfg, nil
}

func buildCartesian(conf *config.Config) (*coordmap.Machine, error) {
	s := conf.GetSection("cartesian")
	if s == nil {
		return nil, errors.ConfigSectionError("cartesian")
	}
	var cc coordmap.CartesianConfig
	for i, key := range []string{"x_steps_per_mm", "y_steps_per_mm", "z_steps_per_mm"} {
		v, err := requireFloat(s, "cartesian", key)
		if err != nil {
			return nil, err
		}
		cc.StepsPerMM[i] = v
	}
	v, err := requireFloat(s, "cartesian", "e_steps_per_mm")
	if err != nil {
		return nil, err
	}
	cc.ExtruderStepsPerMM = v
	return coordmap.NewCartesian(cc), nil
}

func buildDelta(conf *config.Config) (*coordmap.Machine, error) {
	s := conf.GetSection("delta")
	if s == nil {
		return nil, errors.ConfigSectionError("delta")
	}
	var dc coordmap.DeltaConfig
	fields := []struct {
		key string
		dst *float64
	}{
		{"radius", &dc.Radius},
		{"arm", &dc.ArmLen},
		{"steps_per_mm", &dc.StepsPerMM},
		{"e_steps_per_mm", &dc.ExtruderStepsPerMM},
	}
	for _, f := range fields {
		v, err := requireFloat(s, "delta", f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return coordmap.NewDelta(dc), nil
}

// applyAxisSections reads the per-axis pin sections. Axes without a
// section keep zero pins, which only matters once a real scheduler is
// attached.
func applyAxisSections(conf *config.Config, m *coordmap.Machine) error {
	for i := range m.Axes {
		axis := &m.Axes[i]
		s := conf.GetSection(axis.Name)
		if s == nil {
			continue
		}
		var err error
		if axis.StepPin, err = requireInt(s, axis.Name, "step_pin"); err != nil {
			return err
		}
		if axis.DirPin, err = requireInt(s, axis.Name, "dir_pin"); err != nil {
			return err
		}
		axis.InvertStep = optionalBool(s, "invert_step")
		axis.InvertDir = optionalBool(s, "invert_dir")

		if pin, err := optionalInt(s, "endstop_pin"); err == nil {
			es := endstop.New(endstop.Config{
				Name:     axis.Name + "_endstop",
				Pin:      pin,
				Inverted: optionalBool(s, "endstop_invert"),
			})
			axis.Endstop = es
		}
	}
	return nil
}

func applyScheduler(conf *config.Config, cfg *Config) error {
	cfg.Scheduler = SchedulerConfig{Type: "dumb", Baud: 250000}
	s := conf.GetSection("scheduler")
	if s == nil {
		return nil
	}
	typ, err := s.GetArg("type")
	if err != nil {
		return errors.ConfigOptionError("scheduler", "type")
	}
	switch typ {
	case "dumb", "gpio", "serial":
		cfg.Scheduler.Type = typ
	default:
		return errors.ConfigValidationError("scheduler", "type",
			"must be dumb, gpio or serial")
	}
	if typ == "serial" {
		if cfg.Scheduler.Device, err = s.GetArg("device"); err != nil {
			return errors.ConfigOptionError("scheduler", "device")
		}
		if baud, err := optionalInt(s, "baud"); err == nil {
			cfg.Scheduler.Baud = baud
		}
	}
	var latency float64
	if n, err := s.Parse("latency", "%f", &latency); err == nil && n == 1 {
		cfg.Scheduler.Latency = latency
	}
	return nil
}

func requireFloat(s *config.Section, section, key string) (float64, error) {
	var v float64
	n, err := s.Parse(key, "%f", &v)
	if err != nil || n != 1 {
		return 0, errors.ConfigOptionError(section, key)
	}
	if v <= 0 {
		return 0, errors.ConfigValidationError(section, key, "must be positive")
	}
	return v, nil
}

func requireInt(s *config.Section, section, key string) (int, error) {
	var v int
	n, err := s.Parse(key, "%d", &v)
	if err != nil || n != 1 {
		return 0, errors.ConfigOptionError(section, key)
	}
	return v, nil
}

func optionalInt(s *config.Section, key string) (int, error) {
	var v int
	n, err := s.Parse(key, "%d", &v)
	if err != nil || n != 1 {
		return 0, errors.ConfigOptionError("", key)
	}
	return v, nil
}

func optionalBool(s *config.Section, key string) bool {
	var v int
	n, err := s.Parse(key, "%d", &v)
	return err == nil && n == 1 && v != 0
}

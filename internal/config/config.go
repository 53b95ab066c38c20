package config

import (
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivectl/internal/motion"
	"github.com/san-kum/drivectl/internal/pid"
	"github.com/san-kum/drivectl/internal/safety"
	"github.com/san-kum/drivectl/internal/sim"
)

var (
	ErrInvalidGains  = errors.New("invalid gains")
	ErrInvalidTiming = errors.New("invalid timing")
)

const (
	DefaultLateralKp = 0.38
	DefaultLateralKi = 0.001
	DefaultLateralKd = 0.45
	DefaultTurnKp    = 0.8
	DefaultTurnKd    = 0.1
)

type Config struct {
	Gains    GainSet         `yaml:"gains"`
	Move     motion.Settings `yaml:"move"`
	Turn     motion.Settings `yaml:"turn"`
	Geometry motion.Geometry `yaml:"geometry"`
	OpenLoop motion.OpenLoop `yaml:"open_loop"`
	Safety   safety.Config   `yaml:"safety"`
	Plant    sim.PlantConfig `yaml:"plant"`
}

// GainSet holds one set of gains per controlled axis.
type GainSet struct {
	Lateral pid.Gains `yaml:"lateral"`
	Left    pid.Gains `yaml:"left"`
	Right   pid.Gains `yaml:"right"`
}

func DefaultConfig() *Config {
	turn := pid.Gains{Kp: DefaultTurnKp, Kd: DefaultTurnKd}
	return &Config{
		Gains: GainSet{
			Lateral: pid.Gains{Kp: DefaultLateralKp, Ki: DefaultLateralKi, Kd: DefaultLateralKd},
			Left:    turn,
			Right:   turn,
		},
		Move:     motion.DefaultMoveSettings(),
		Turn:     motion.DefaultTurnSettings(),
		OpenLoop: motion.DefaultOpenLoop(),
		Safety:   safety.DefaultConfig(),
		Plant:    sim.DefaultPlantConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// Motion returns the drivetrain configuration.
func (c *Config) Motion() motion.Config {
	return motion.Config{
		Lateral:  c.Gains.Lateral,
		Left:     c.Gains.Left,
		Right:    c.Gains.Right,
		Move:     c.Move,
		Turn:     c.Turn,
		Geometry: c.Geometry,
		OpenLoop: c.OpenLoop,
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error
	for _, g := range []struct {
		axis  pid.Axis
		gains pid.Gains
	}{
		{pid.Lateral, c.Gains.Lateral},
		{pid.Left, c.Gains.Left},
		{pid.Right, c.Gains.Right},
	} {
		err = multierr.Append(err, validateGains(g.axis.String(), g.gains))
	}

	err = multierr.Append(err, validateSettings("move", c.Move))
	err = multierr.Append(err, validateSettings("turn", c.Turn))

	if c.Geometry.WheelDiameter < 0 {
		err = multierr.Append(err, errors.Errorf("wheel diameter %v is negative", c.Geometry.WheelDiameter))
	}
	if c.OpenLoop.DistancePerSecond <= 0 || c.OpenLoop.SecondsPer90 <= 0 {
		err = multierr.Append(err, errors.Wrap(ErrInvalidTiming, "open loop calibration must be positive"))
	}

	s := c.Safety
	if s.Period <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidTiming, "safety period %v", s.Period))
	}
	if s.Alliance != safety.Red && s.Alliance != safety.Blue {
		err = multierr.Append(err, errors.Errorf("unknown alliance %q", s.Alliance))
	}
	if s.EjectDelay < 0 || s.EjectWindow <= 0 || s.Rearm < 0 || s.BoostTicks < 0 {
		err = multierr.Append(err, errors.Wrap(ErrInvalidTiming, "sorter tick counts"))
	}
	if s.Stall.StallSamples < 1 || s.Stall.PulseTicks < 1 || s.Stall.CooldownTicks < 0 {
		err = multierr.Append(err, errors.Wrap(ErrInvalidTiming, "stall tick counts"))
	}
	return err
}

func validateGains(axis string, g pid.Gains) error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidGains, "%s: %s", axis, g)
		}
	}
	return nil
}

func validateSettings(name string, s motion.Settings) error {
	var err error
	if s.Tick <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidTiming, "%s tick %v", name, s.Tick))
	}
	if s.Timeout < s.Tick {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidTiming, "%s timeout %v shorter than one tick", name, s.Timeout))
	}
	if s.SettleDelay < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidTiming, "%s settle delay %v", name, s.SettleDelay))
	}
	if s.StrikeLimit < 1 {
		err = multierr.Append(err, errors.Errorf("%s strike limit must be at least 1, got %d", name, s.StrikeLimit))
	}
	if s.Threshold <= 0 {
		err = multierr.Append(err, errors.Errorf("%s threshold must be positive, got %v", name, s.Threshold))
	}
	if s.Tolerance < 0 || s.MaxOutput < 0 {
		err = multierr.Append(err, errors.Errorf("%s tolerance and max output must not be negative", name))
	}
	if s.StrikeLimit > 0 && s.Tick > 0 && time.Duration(s.StrikeLimit)*s.Tick > s.Timeout {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidTiming, "%s cannot settle: %d strikes of %v exceed the %v timeout",
			name, s.StrikeLimit, s.Tick, s.Timeout))
	}
	return err
}

// Package route runs scripted autonomous routines loaded from yaml files.
package route

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivectl/internal/hal"
)

var ErrUnknownStep = errors.New("unknown step")

const (
	StepMove       = "move"
	StepTurn       = "turn"
	StepTimedMove  = "timed_move"
	StepTimedTurn  = "timed_turn"
	StepWait       = "wait"
	StepConveyor   = "conveyor"
	StepGate       = "gate"
	StepSetHeading = "set_heading"
)

type Route struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one instruction. Which fields matter depends on Kind: Value is a
// distance for moves, degrees for turns and the heading for set_heading.
type Step struct {
	Kind      string        `yaml:"kind"`
	Value     float64       `yaml:"value,omitempty"`
	Velocity  float64       `yaml:"velocity,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	Duration  time.Duration `yaml:"duration,omitempty"`
	Direction string        `yaml:"direction,omitempty"`
	On        bool          `yaml:"on,omitempty"`
	Label     string        `yaml:"label,omitempty"`
}

func (s Step) String() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Kind
}

func Load(path string) (*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read route")
	}
	r, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "route %s", path)
	}
	return r, nil
}

func Parse(data []byte) (*Route, error) {
	var r Route
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "parse route")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate reports every bad step at once.
func (r *Route) Validate() error {
	var err error
	if len(r.Steps) == 0 {
		err = multierr.Append(err, errors.New("route has no steps"))
	}
	for i, s := range r.Steps {
		err = multierr.Append(err, errors.Wrapf(s.validate(), "step %d", i+1))
	}
	return err
}

func (s Step) validate() error {
	switch s.Kind {
	case StepMove, StepTurn, StepTimedMove, StepTimedTurn, StepSetHeading:
	case StepWait:
		if s.Duration <= 0 {
			return errors.Errorf("wait needs a positive duration, got %v", s.Duration)
		}
	case StepConveyor:
		if _, ok := hal.ParseDirective(s.Direction); !ok {
			return errors.Errorf("unknown conveyor direction %q", s.Direction)
		}
	case StepGate:
	default:
		return errors.Wrapf(ErrUnknownStep, "%q", s.Kind)
	}
	if s.Velocity < 0 || s.Velocity > 100 {
		return errors.Errorf("velocity %v out of range", s.Velocity)
	}
	return nil
}

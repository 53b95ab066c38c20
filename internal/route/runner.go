package route

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/san-kum/drivectl/internal/hal"
	"github.com/san-kum/drivectl/internal/motion"
)

// Env is what a route acts on. Gate may be nil if no route uses it.
type Env struct {
	Drive    *motion.Drive
	Bus      *hal.Bus
	Gate     hal.DigitalOut
	Inertial hal.Inertial
	Clock    hal.Clock
}

type StepResult struct {
	Index   int            `json:"index"`
	Step    Step           `json:"step"`
	Motion  *motion.Result `json:"motion,omitempty"`
	Elapsed time.Duration  `json:"elapsed"`
}

type Runner struct {
	env    Env
	logger golog.Logger
}

func NewRunner(env Env, logger golog.Logger) *Runner {
	if env.Clock == nil {
		env.Clock = hal.SystemClock()
	}
	if logger == nil {
		logger = golog.Global()
	}
	return &Runner{env: env, logger: logger}
}

// Run executes the steps in order. A primitive that has started always runs
// to completion; ctx is only checked between steps.
func (r *Runner) Run(ctx context.Context, route *Route) ([]StepResult, error) {
	results := make([]StepResult, 0, len(route.Steps))

	for i, step := range route.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r.logger.Infow("route step", "route", route.Name, "step", i+1, "of", len(route.Steps), "kind", step.Kind, "label", step.Label)

		start := r.env.Clock.Now()
		res, err := r.step(step)
		if err != nil {
			return results, errors.Wrapf(err, "step %d (%s)", i+1, step)
		}
		if res != nil {
			r.logger.Infow("route step done", "step", i+1, "outcome", res.Outcome, "final", res.Final)
		}
		results = append(results, StepResult{Index: i, Step: step, Motion: res, Elapsed: r.env.Clock.Now().Sub(start)})
	}
	return results, nil
}

// step runs one instruction. Only motion steps return a result.
func (r *Runner) step(s Step) (*motion.Result, error) {
	req := motion.Request{Setpoint: s.Value, Velocity: s.Velocity, Timeout: s.Timeout}

	switch s.Kind {
	case StepMove:
		return result(r.env.Drive.Move(req))
	case StepTurn:
		return result(r.env.Drive.Turn(req))
	case StepTimedMove:
		return result(r.env.Drive.TimedMove(s.Value, s.Velocity))
	case StepTimedTurn:
		return result(r.env.Drive.TimedTurn(s.Value, s.Velocity))
	case StepWait:
		r.env.Clock.Sleep(s.Duration)
	case StepConveyor:
		d, ok := hal.ParseDirective(s.Direction)
		if !ok {
			return nil, errors.Errorf("unknown conveyor direction %q", s.Direction)
		}
		if r.env.Bus == nil {
			return nil, errors.New("no conveyor bus")
		}
		r.env.Bus.Store(d)
	case StepGate:
		if r.env.Gate == nil {
			return nil, errors.New("no gate output")
		}
		r.env.Gate.Set(s.On)
	case StepSetHeading:
		if r.env.Inertial == nil {
			return nil, errors.New("no inertial sensor")
		}
		r.env.Inertial.SetRotation(s.Value)
	default:
		return nil, errors.Wrapf(ErrUnknownStep, "%q", s.Kind)
	}
	return nil, nil
}

func result(r motion.Result) (*motion.Result, error) {
	return &r, nil
}

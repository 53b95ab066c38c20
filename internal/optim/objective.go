package optim

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/san-kum/drivectl/internal/config"
	"github.com/san-kum/drivectl/internal/metrics"
	"github.com/san-kum/drivectl/internal/motion"
	"github.com/san-kum/drivectl/internal/pid"
	"github.com/san-kum/drivectl/internal/sim"
)

// SimObjective runs one primitive on a fresh simulated drivetrain built from
// cfg and scores it by the named metric. Move tunes the lateral gains, Turn
// both side gains.
func SimObjective(cfg *config.Config, kind motion.Kind, setpoint float64, metric string) Objective {
	return func(ctx context.Context, g pid.Gains) (Candidate, error) {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}

		c := *cfg
		switch kind {
		case motion.Move:
			c.Gains.Lateral = g
		case motion.Turn:
			c.Gains.Left, c.Gains.Right = g, g
		default:
			return Candidate{}, errors.Errorf("cannot tune %s", kind)
		}

		world := sim.NewWorld(c.Plant)
		hw := motion.Hardware{Drivetrain: world, Encoders: world, Inertial: world, Clock: world}
		drive := motion.New(c.Motion(), hw, golog.NewLogger("optim"))

		var res motion.Result
		if kind == motion.Move {
			res = drive.Move(motion.Request{Setpoint: setpoint})
		} else {
			res = drive.Turn(motion.Request{Setpoint: setpoint})
		}

		values := metrics.Evaluate(res)
		score, ok := values[metric]
		if !ok {
			return Candidate{}, errors.Errorf("unknown metric %q", metric)
		}
		return Candidate{
			Gains:     g,
			Score:     score,
			Converged: res.Outcome == motion.Converged,
			Metrics:   values,
		}, nil
	}
}

package motion

import (
	"math"

	"github.com/san-kum/drivectl/internal/pid"
)

// settleCounter counts consecutive low-output ticks.
type settleCounter struct {
	threshold float64
	limit     int
	strikes   int
}

// observe records one tick and reports whether the limit was reached.
func (c *settleCounter) observe(output float64, inBand bool) bool {
	if math.Abs(output) < c.threshold && inBand {
		c.strikes++
	} else {
		c.strikes = 0
	}
	return c.strikes >= c.limit
}

// controlFunc computes one tick: the output used for the settle test and the
// per-side commands.
type controlFunc func(setpoint, measurement float64) (output, left, right float64)

// run is the shared monitor loop of every closed-loop primitive.
func (d *Drive) run(kind Kind, req Request, s Settings, measure func() float64, control controlFunc, axes ...pid.Axis) Result {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.Timeout
	}

	d.bank.Reset(axes...)
	d.hw.Drivetrain.SetVelocityCap(velocityCap(req.Velocity))

	res := Result{Kind: kind, Request: req, Outcome: Running, Settings: s}
	counter := settleCounter{threshold: s.Threshold, limit: s.StrikeLimit}
	target := math.Abs(req.Setpoint)
	clock := d.hw.Clock
	start := clock.Now()

	for res.Outcome == Running {
		elapsed := clock.Now().Sub(start)
		if elapsed >= timeout {
			res.Outcome = TimedOut
			break
		}

		m := measure()
		out, left, right := control(req.Setpoint, m)
		left, right = clampOutput(left, s.MaxOutput), clampOutput(right, s.MaxOutput)
		d.hw.Drivetrain.Drive(left, right)
		res.Ticks++

		inBand := s.Tolerance <= 0 || math.Abs(math.Abs(m)-target) <= s.Tolerance
		if counter.observe(out, inBand) {
			res.Outcome = Converged
		}

		sample := Sample{
			Tick:        res.Ticks,
			Elapsed:     elapsed,
			Measurement: m,
			Error:       req.Setpoint - m,
			Output:      out,
			Left:        left,
			Right:       right,
			Strikes:     counter.strikes,
		}
		res.Samples = append(res.Samples, sample)
		d.notify(kind, sample)
		d.logger.Debugw("tick", "kind", kind, "tick", res.Ticks, "measurement", m, "output", out, "strikes", counter.strikes)

		if res.Outcome == Running {
			clock.Sleep(s.Tick)
		}
	}

	res.Elapsed = clock.Now().Sub(start)

	d.bank.Reset(axes...)
	d.hw.Drivetrain.Drive(0, 0)
	clock.Sleep(s.SettleDelay)

	res.Final = measure()
	d.logger.Debugw("motion done", "kind", kind, "setpoint", req.Setpoint, "outcome", res.Outcome,
		"ticks", res.Ticks, "elapsed", res.Elapsed, "final", res.Final)
	return res
}

func clampOutput(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}

func velocityCap(v float64) float64 {
	if v <= 0 || v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 { return math.Abs(v) }

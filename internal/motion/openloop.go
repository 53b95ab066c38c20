package motion

import (
	"math"
	"time"
)

// OpenLoop holds the calibration constants of the timed fallbacks.
type OpenLoop struct {
	// DistancePerSecond is the travel at full speed, measured empirically.
	DistancePerSecond float64 `yaml:"distance_per_second" json:"distance_per_second"`
	// SecondsPer90 is the time a full-speed quarter turn takes.
	SecondsPer90 float64 `yaml:"seconds_per_90" json:"seconds_per_90"`
	// Volts is the full-scale command.
	Volts float64 `yaml:"volts" json:"volts"`
}

func DefaultOpenLoop() OpenLoop {
	return OpenLoop{DistancePerSecond: 75, SecondsPer90: 0.4, Volts: 12}
}

// TimedMove drives both sides at velocity percent for the time the
// calibration says distance takes. The sign of distance is the direction.
func (d *Drive) TimedMove(distance, velocity float64) Result {
	ol := d.cfg.OpenLoop
	var dur time.Duration
	if ol.DistancePerSecond > 0 {
		dur = seconds(math.Abs(distance) / ol.DistancePerSecond)
	}
	sign := math.Copysign(1, distance)
	return d.timed(TimedMove, distance, velocity, dur, sign, sign)
}

// TimedTurn spins in place for |degrees|/90 quarter-turn periods. Positive
// degrees turn clockwise.
func (d *Drive) TimedTurn(degrees, velocity float64) Result {
	ol := d.cfg.OpenLoop
	dur := seconds(math.Abs(degrees) / 90 * ol.SecondsPer90)
	sign := math.Copysign(1, degrees)
	return d.timed(TimedTurn, degrees, velocity, dur, sign, -sign)
}

func (d *Drive) timed(kind Kind, setpoint, velocity float64, dur time.Duration, ls, rs float64) Result {
	pct := velocityCap(velocity)
	volts := d.cfg.OpenLoop.Volts * pct / 100
	clock := d.hw.Clock

	start := clock.Now()
	d.hw.Drivetrain.SetVelocityCap(pct)
	if dur > 0 {
		d.hw.Drivetrain.Drive(ls*volts, rs*volts)
		clock.Sleep(dur)
	}
	d.hw.Drivetrain.Stop()

	res := Result{
		Kind:    kind,
		Request: Request{Setpoint: setpoint, Velocity: velocity, Timeout: dur},
		Outcome: Completed,
		Elapsed: clock.Now().Sub(start),
	}
	d.logger.Debugw("open loop done", "kind", kind, "setpoint", setpoint, "duration", dur)
	return res
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

package safety

import "math"

type stallPhase int

const (
	stallArmed stallPhase = iota
	stallPulse
	stallCooldown
)

// StallDetector recovers a jammed mechanism with a single pulse against the
// commanded direction, followed by a window in which it does not look for
// stalls.
type StallDetector struct {
	cfg       StallConfig
	phase     stallPhase
	low       int
	remaining int
	pulses    int
}

func NewStallDetector(cfg StallConfig) *StallDetector {
	return &StallDetector{cfg: cfg}
}

// Observe takes one sample and reports whether the mechanism must be driven
// against its commanded direction for it.
func (d *StallDetector) Observe(commanded, observed float64) bool {
	switch d.phase {
	case stallPulse:
		d.remaining--
		if d.remaining > 0 {
			return true
		}
		d.phase, d.remaining = stallCooldown, d.cfg.CooldownTicks
		return false
	case stallCooldown:
		d.remaining--
		if d.remaining <= 0 {
			d.phase, d.low = stallArmed, 0
		}
		return false
	}

	if math.Abs(commanded) > 0 && math.Abs(observed) < d.cfg.VelocityFloor {
		d.low++
	} else {
		d.low = 0
	}
	if d.low > d.cfg.StallSamples {
		d.phase, d.remaining, d.low = stallPulse, d.cfg.PulseTicks, 0
		d.pulses++
		return true
	}
	return false
}

// Pulses counts the recovery pulses fired so far.
func (d *StallDetector) Pulses() int {
	return d.pulses
}

func (d *StallDetector) Armed() bool {
	return d.phase == stallArmed
}

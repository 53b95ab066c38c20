package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/drivectl/internal/motion"
)

// SettleTime is the elapsed time, in seconds, after which the error stays
// inside the band for the rest of the run. It is -1 if the run never
// settled.
type SettleTime struct {
	band    float64
	settled float64
	inside  bool
}

func NewSettleTime(band float64) *SettleTime {
	return &SettleTime{band: band, settled: -1}
}

func (m *SettleTime) Name() string { return "settle_time" }

func (m *SettleTime) Observe(s motion.Sample) {
	if math.Abs(s.Error) > m.band {
		m.inside, m.settled = false, -1
		return
	}
	if !m.inside {
		m.inside, m.settled = true, s.Elapsed.Seconds()
	}
}

func (m *SettleTime) Value() float64 { return m.settled }

func (m *SettleTime) Reset() {
	m.inside, m.settled = false, -1
}

// Overshoot is how far the measurement went past the setpoint, in the units
// of the measurement.
type Overshoot struct {
	past []float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s motion.Sample) {
	setpoint := s.Error + s.Measurement
	dir := 1.0
	if setpoint < 0 {
		dir = -1
	}
	m.past = append(m.past, -dir*s.Error)
}

func (m *Overshoot) Value() float64 {
	if len(m.past) == 0 {
		return 0
	}
	return math.Max(0, floats.Max(m.past))
}

func (m *Overshoot) Reset() { m.past = m.past[:0] }

// IAE is the integral of the absolute error over time.
type IAE struct {
	t, e []float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s motion.Sample) {
	m.t = append(m.t, s.Elapsed.Seconds())
	m.e = append(m.e, math.Abs(s.Error))
}

func (m *IAE) Value() float64 {
	if len(m.t) < 2 {
		return 0
	}
	return integrate.Trapezoidal(m.t, m.e)
}

func (m *IAE) Reset() {
	m.t, m.e = m.t[:0], m.e[:0]
}

// ControlEffort is the mean absolute per-side command.
type ControlEffort struct {
	effort []float64
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (m *ControlEffort) Name() string { return "control_effort" }

func (m *ControlEffort) Observe(s motion.Sample) {
	m.effort = append(m.effort, (math.Abs(s.Left)+math.Abs(s.Right))/2)
}

func (m *ControlEffort) Value() float64 {
	if len(m.effort) == 0 {
		return 0
	}
	return stat.Mean(m.effort, nil)
}

func (m *ControlEffort) Reset() { m.effort = m.effort[:0] }

// FinalError is the absolute error of the last sample.
type FinalError struct {
	last float64
}

func NewFinalError() *FinalError { return &FinalError{} }

func (m *FinalError) Name() string { return "final_error" }

func (m *FinalError) Observe(s motion.Sample) { m.last = math.Abs(s.Error) }

func (m *FinalError) Value() float64 { return m.last }

func (m *FinalError) Reset() { m.last = 0 }

package motion

import (
	"fmt"
	"time"
)

type Outcome int

const (
	Running Outcome = iota
	Converged
	TimedOut
	Completed
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case TimedOut:
		return "timed_out"
	case Completed:
		return "completed"
	default:
		return "running"
	}
}

type Kind int

const (
	Move Kind = iota
	Turn
	TimedMove
	TimedTurn
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Turn:
		return "turn"
	case TimedMove:
		return "timed_move"
	case TimedTurn:
		return "timed_turn"
	default:
		return "unknown"
	}
}

// Request is one motion command. Zero Velocity means full speed and zero
// Timeout means the configured default.
type Request struct {
	Setpoint float64
	Velocity float64
	Timeout  time.Duration
}

// Settings are the loop constants of one primitive. Gains are tuned against
// Tick, so changing it invalidates them.
type Settings struct {
	Tick        time.Duration `yaml:"tick" json:"tick"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
	Threshold   float64       `yaml:"threshold" json:"threshold"`
	StrikeLimit int           `yaml:"strike_limit" json:"strike_limit"`
	// Tolerance is the band around |setpoint| a settled tick must lie in.
	// Zero disables the band.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// MaxOutput clamps each side's command. Zero leaves it to the sink.
	MaxOutput float64 `yaml:"max_output" json:"max_output"`
}

func DefaultMoveSettings() Settings {
	return Settings{
		Tick:        70 * time.Millisecond,
		Timeout:     2 * time.Second,
		SettleDelay: 20 * time.Millisecond,
		Threshold:   0.5,
		StrikeLimit: 8,
		Tolerance:   1,
		MaxOutput:   12,
	}
}

func DefaultTurnSettings() Settings {
	s := DefaultMoveSettings()
	s.Tolerance = 2
	return s
}

// Sample is one tick of a closed-loop run.
type Sample struct {
	Tick        int           `json:"tick"`
	Elapsed     time.Duration `json:"elapsed"`
	Measurement float64       `json:"measurement"`
	Error       float64       `json:"error"`
	Output      float64       `json:"output"`
	Left        float64       `json:"left"`
	Right       float64       `json:"right"`
	Strikes     int           `json:"strikes"`
}

type Result struct {
	Kind     Kind          `json:"kind"`
	Request  Request       `json:"request"`
	Outcome  Outcome       `json:"outcome"`
	Ticks    int           `json:"ticks"`
	Elapsed  time.Duration `json:"elapsed"`
	Final    float64       `json:"final"`
	Samples  []Sample      `json:"samples,omitempty"`
	Settings Settings      `json:"settings"`
}

// FinalError is the remaining distance to the target magnitude.
func (r Result) FinalError() float64 {
	return abs(r.Request.Setpoint) - abs(r.Final)
}

func (r Result) String() string {
	return fmt.Sprintf("%s %.2f: %s after %d ticks (%v), final %.3f",
		r.Kind, r.Request.Setpoint, r.Outcome, r.Ticks, r.Elapsed, r.Final)
}

// Observer receives every sample of every closed-loop run.
type Observer interface {
	OnTick(kind Kind, s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(kind Kind, s Sample)

func (f ObserverFunc) OnTick(kind Kind, s Sample) { f(kind, s) }

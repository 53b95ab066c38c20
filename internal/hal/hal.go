package hal

import "time"

// Side identifies one half of a differential drivetrain.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

type Drivetrain interface {
	// Drive commands both sides in volts. Positive is forward.
	Drive(left, right float64)
	// SetVelocityCap limits both sides to pct percent of full speed.
	SetVelocityCap(pct float64)
	Stop()
}

type Encoders interface {
	// Positions returns one accumulated reading per drive motor, in degrees.
	Positions() []float64
	Tare()
}

type Inertial interface {
	// Rotation is the accumulated heading in degrees. It is not wrapped.
	Rotation() float64
	SetRotation(deg float64)
}

type Motor interface {
	SetVelocity(pct float64)
	Velocity() float64
}

type ColorSensor interface {
	Hue() float64
	Saturation() float64
	SetLED(pct float64)
}

type DigitalOut interface {
	Set(on bool)
}

// Clock abstracts wall-clock time so control loops can run against a
// simulated plant without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

// SystemClock returns the process wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

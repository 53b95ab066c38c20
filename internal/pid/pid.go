package pid

import "fmt"

type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

func (g Gains) String() string {
	return fmt.Sprintf("kp=%g ki=%g kd=%g", g.Kp, g.Ki, g.Kd)
}

// State is a read-only snapshot of a controller.
type State struct {
	Gains
	Integral  float64
	PrevError float64
}

type Controller struct {
	gains    Gains
	integral float64
	prevErr  float64
}

func New(g Gains) *Controller {
	return &Controller{gains: g}
}

// Calculate advances the controller by one tick and returns its output.
// The integral is not clamped.
func (c *Controller) Calculate(setpoint, measurement float64) float64 {
	err := setpoint - measurement

	c.integral += err
	derivative := err - c.prevErr
	c.prevErr = err

	return c.gains.Kp*err + c.gains.Kd*derivative + c.gains.Ki*c.integral
}

// Reset clears the integral and the previous error.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevErr = 0
}

func (c *Controller) Gains() Gains {
	return c.gains
}

func (c *Controller) State() State {
	return State{Gains: c.gains, Integral: c.integral, PrevError: c.prevErr}
}

// Package pid provides the discrete feedback controller used by every
// motion primitive.
//
// The controller works in ticks, not seconds: the derivative is a one-sample
// backward difference and the integral is a plain running sum. Gains tuned
// for one tick period are therefore only valid at that period.
//
// # Usage
//
//	c := pid.New(pid.Gains{Kp: 0.38, Ki: 0.001, Kd: 0.45})
//	out := c.Calculate(25, measurement) // once per tick
//	c.Reset()                           // before reusing for another target
//
// A controller must be reset between unrelated targets, otherwise the
// accumulated integral and the last error leak into the next move.
package pid

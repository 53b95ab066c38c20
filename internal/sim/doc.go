// Package sim is a simulated tank-drive robot implementing the hal contracts.
//
// [World] couples a first-order drivetrain plant to a clock. In virtual mode
// Sleep advances simulated time instantly, so a two second motion primitive
// runs in microseconds and every run with the same seed is identical. In
// real-time mode Sleep also blocks for the requested duration, which is what
// the CLI uses when a route runs next to the background safety task.
//
// The conveyor, color sensor and gate are independent devices so the safety
// task can be exercised without a drivetrain.
package sim

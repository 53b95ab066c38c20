// Package hal declares the hardware contracts the control core consumes.
//
// Nothing in this package talks to hardware. Drivers (real or simulated)
// implement these interfaces:
//
//   - [Drivetrain]: per-side actuation sink with a velocity cap
//   - [Encoders]: accumulating wheel positions in degrees
//   - [Inertial]: accumulating absolute rotation in degrees
//   - [Motor]: a single velocity-commanded motor (conveyor, intake)
//   - [ColorSensor]: optical hue/saturation reading
//   - [DigitalOut]: a pneumatic or gate output
//   - [Clock]: wall-clock time and the control loop sleep
//
// [Bus] is the shared directional cell written by the route/teleop side and
// the background safety task.
//
// # Saturation
//
// Sinks saturate silently at their hardware limits. Callers never receive an
// error for an out-of-range command.
package hal

// Package motion implements the closed-loop motion primitives of a tank
// drivetrain and the monitor that decides when each one ends.
//
// Every primitive runs the same tick loop on the calling goroutine:
//
//	sense -> pid.Calculate -> Drivetrain.Drive -> Clock.Sleep(Tick)
//
// and ends in one of two terminal outcomes:
//
//   - [Converged]: the controller output stayed below Threshold for
//     StrikeLimit consecutive ticks (inside the tolerance band, if one is set)
//   - [TimedOut]: Timeout elapsed since the call started
//
// On either outcome the controllers are reset, the drivetrain is commanded to
// zero and the loop waits SettleDelay before returning. Calls block until then
// and cannot be cancelled; the timeout bounds every call.
//
// [Drive.TimedMove] and [Drive.TimedTurn] are open-loop fallbacks for when a
// sensor is unavailable. They run for a computed duration and report
// [Completed].
package motion

// Package safety runs the conveyor supervision loop that shares the
// conveyor with the route or the operator.
//
// Every Period the [Task]:
//
//  1. reads the optical sensor and feeds the [Sorter], which ejects rings of
//     the opposing alliance color by forcing the conveyor into reverse for a
//     fixed window after a travel delay, and boosts the conveyor for rings of
//     the own color;
//  2. feeds the commanded and observed conveyor velocity to the
//     [StallDetector], which fires one reverse pulse when the conveyor stalls
//     and then ignores it for a cooldown window;
//  3. writes Reverse into the shared [hal.Bus] while either override is
//     active and hands the displaced directive back when both end;
//  4. commands the conveyor from the bus directive.
//
// The task never returns errors. Jams are recovered locally and not surfaced.
package safety

// Package viz renders a motion run in the terminal while it executes.
//
// The live view is a Bubble Tea program fed by a [Feed], which is attached
// to a drive as a motion observer:
//
//	feed := viz.NewFeed(64)
//	drive.AddObserver(feed)
//	go func() { feed.Finish(drive.Move(req)) }()
//	tea.NewProgram(viz.NewModel(feed, "move 24", 24, 8)).Run()
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	T     - Cycle color themes
//	Q     - Quit
package viz

// Package viz is the terminal front-end of the star simulation.
//
// [Model] is a Bubble Tea program that drives a [sim.Simulation] at 60 fps and
// draws it on a braille [Canvas]. Stars are made with the mouse: press to
// start, hold to grow the mass, and flick on release to launch.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	C     - Clear all stars
//	M     - Toggle merging
//	W     - Toggle wrap-around edges
//	P     - Toggle orbit playground mode
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	Esc   - Cancel the star being created
//	?     - Show help overlay
//
// # Recording
//
// G starts a [Recorder]; pressing it again writes the frames as a GIF.
package viz

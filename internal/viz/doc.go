// Package viz draws toppling automata in the terminal.
//
// [Live] steps a model on the Bubble Tea loop and shows a two dimensional
// slice through the origin next to running statistics. [Picker] opens a
// Live view for one of the configured presets. [PlotTrace] charts a stored
// trace with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	B     - Write a checkpoint
//	T     - Cycle color themes
//	V     - Toggle dot rendering
//	+/-   - Zoom the slice
package viz

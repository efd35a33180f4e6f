// Package viz provides terminal visualization for running worlds.
//
// Two renderers share the same track strip drawing:
//
//   - [Model]: interactive Bubble Tea cab view with driving keys
//   - [LiveRenderer]: frame-capped plain ANSI output for scripted runs
//
// # Key Bindings
//
//	Space - Pause/Resume
//	Tab   - Focus next train
//	↑/↓   - Power notch up/down
//	←/→   - Brake notch down/up
//	r     - Cycle reverser
//	h     - Toggle hold brake
//	e     - Toggle emergency brake
//	R     - Rebuild the scenario from scratch
//	+/-   - Simulation speed, 0 resets to real time
package viz

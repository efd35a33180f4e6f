// Package analysis characterizes recorded runs offline.
//
// The package works on plain sample slices, so it does not care
// whether a series came from a live run or a stored one:
//
//   - [NewSpectrum]: Hann-windowed power spectrum of a sample series
//   - [Spectrum.Dominant]: strongest non-DC component, for picking out
//     hunting and shake frequencies
//   - [PhasePortrait]: position-speed trajectory with an ASCII renderer
//   - [Summarize]: min/max/mean/stddev/rms of a column
//
// # Oscillation Detection
//
// A speed series with a sharp dominant component is oscillating rather
// than settling:
//
//	spec := analysis.NewSpectrum(speeds, 1/dt)
//	freq, power := spec.Dominant()
package analysis

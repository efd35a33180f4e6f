package analysis

import (
	"math"
	"math/cmplx"
)

// FFT transforms a real sample series, zero-padding it to the next
// power of two so callers can hand over series of any length.
func FFT(data []float64) []complex128 {
	n := nextPow2(len(data))
	buf := make([]complex128, n)
	for i, v := range data {
		buf[i] = complex(v, 0)
	}
	return fft(buf)
}

func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// HannWindow tapers a series to zero at both ends, trading a little
// peak sharpness for far less spectral leakage.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Spectrum is one-sided: bin i sits at Frequencies[i] hertz.
type Spectrum struct {
	Frequencies []float64
	Power       []float64
}

// NewSpectrum removes the mean, applies a Hann window and transforms.
// sampleRate is in samples per second, 1/dt for a recorded run.
func NewSpectrum(samples []float64, sampleRate float64) *Spectrum {
	if len(samples) < 2 || sampleRate <= 0 {
		return &Spectrum{}
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))

	window := HannWindow(len(samples))
	detrended := make([]float64, len(samples))
	for i, v := range samples {
		detrended[i] = (v - mean) * window[i]
	}

	coeffs := FFT(detrended)
	n := len(coeffs)
	bins := n / 2

	s := &Spectrum{
		Frequencies: make([]float64, bins),
		Power:       make([]float64, bins),
	}
	for i := 0; i < bins; i++ {
		s.Frequencies[i] = float64(i) * sampleRate / float64(n)
		s.Power[i] = cmplx.Abs(coeffs[i])
	}
	return s
}

// Dominant returns the strongest component above DC. Whatever mean
// survives the windowing still lands in bin zero, so that bin is
// skipped.
func (s *Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq = s.Frequencies[i]
			power = s.Power[i]
		}
	}
	return freq, power
}

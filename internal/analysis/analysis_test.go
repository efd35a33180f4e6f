package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestFFT_ImpulseIsFlat(t *testing.T) {
	coeffs := FFT([]float64{1, 0, 0, 0})
	if len(coeffs) != 4 {
		t.Fatalf("expected 4 coefficients, got %d", len(coeffs))
	}
	for i, c := range coeffs {
		if math.Abs(real(c)-1) > 1e-12 || math.Abs(imag(c)) > 1e-12 {
			t.Errorf("bin %d: expected 1+0i, got %v", i, c)
		}
	}
}

func TestFFT_PadsToPowerOfTwo(t *testing.T) {
	if got := len(FFT(make([]float64, 3))); got != 4 {
		t.Errorf("expected padding to 4, got %d", got)
	}
	if got := len(FFT(make([]float64, 300))); got != 512 {
		t.Errorf("expected padding to 512, got %d", got)
	}
}

func TestFFT_SineConcentratesInOneBin(t *testing.T) {
	const n = 64
	const cycles = 8
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * cycles * float64(i) / n)
	}

	coeffs := FFT(samples)
	peak, peakBin := 0.0, 0
	for i := 1; i < n/2; i++ {
		mag := math.Hypot(real(coeffs[i]), imag(coeffs[i]))
		if mag > peak {
			peak, peakBin = mag, i
		}
	}
	if peakBin != cycles {
		t.Errorf("expected peak at bin %d, got %d", cycles, peakBin)
	}
	if math.Abs(peak-n/2) > 1e-9 {
		t.Errorf("expected peak magnitude %d, got %f", n/2, peak)
	}
}

func TestHannWindow(t *testing.T) {
	w := HannWindow(65)
	if w[0] != 0 || math.Abs(w[64]) > 1e-15 {
		t.Errorf("window should vanish at the ends: %f, %f", w[0], w[64])
	}
	if math.Abs(w[32]-1) > 1e-12 {
		t.Errorf("window should peak at 1 in the middle, got %f", w[32])
	}

	if w := HannWindow(1); w[0] != 1 {
		t.Errorf("single-sample window should be 1, got %f", w[0])
	}
}

func TestSpectrumDominantFrequency(t *testing.T) {
	const sampleRate = 100.0
	const freq = 5.0
	samples := make([]float64, 256)
	for i := range samples {
		samples[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}

	got, power := NewSpectrum(samples, sampleRate).Dominant()
	if math.Abs(got-freq) > 0.5 {
		t.Errorf("expected dominant frequency near %f, got %f", freq, got)
	}
	if power <= 0 {
		t.Error("expected positive peak power")
	}
}

func TestSpectrum_ConstantSeries(t *testing.T) {
	samples := make([]float64, 128)
	for i := range samples {
		samples[i] = 7
	}
	if _, power := NewSpectrum(samples, 100).Dominant(); power > 1e-9 {
		t.Errorf("constant series should have no oscillation, got power %f", power)
	}
}

func TestSpectrum_DegenerateInput(t *testing.T) {
	if s := NewSpectrum(nil, 100); len(s.Power) != 0 {
		t.Error("expected empty spectrum for no samples")
	}
	if s := NewSpectrum([]float64{1, 2, 3}, 0); len(s.Power) != 0 {
		t.Error("expected empty spectrum for zero sample rate")
	}
	if freq, power := (&Spectrum{}).Dominant(); freq != 0 || power != 0 {
		t.Error("empty spectrum should have no dominant component")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	if s.Samples != 4 || s.Min != 1 || s.Max != 4 {
		t.Errorf("bounds: %+v", s)
	}
	if math.Abs(s.Mean-2.5) > 1e-12 {
		t.Errorf("mean = %f", s.Mean)
	}
	if math.Abs(s.RMS-math.Sqrt(7.5)) > 1e-12 {
		t.Errorf("rms = %f", s.RMS)
	}
	if math.Abs(s.StdDev-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("stddev = %f", s.StdDev)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestPhasePortraitASCII(t *testing.T) {
	xs := make([]float64, 100)
	ys := make([]float64, 100)
	for i := range xs {
		theta := 2 * math.Pi * float64(i) / 100
		xs[i] = math.Cos(theta)
		ys[i] = math.Sin(theta)
	}

	out := PhasePortrait(xs, ys).ASCII(40, 20)
	if strings.Count(out, "\n") != 20 {
		t.Errorf("expected 20 rows, got %d", strings.Count(out, "\n"))
	}
	if !strings.Contains(out, "•") {
		t.Error("expected plotted points")
	}
	// A circle around the origin has both axes in view.
	if !strings.Contains(out, "│") || !strings.Contains(out, "─") {
		t.Error("expected axes through the origin")
	}
}

func TestPhasePortrait_TruncatesToShorter(t *testing.T) {
	p := PhasePortrait([]float64{1, 2, 3}, []float64{4, 5})
	if len(p.Points) != 2 {
		t.Errorf("expected 2 points, got %d", len(p.Points))
	}
}

func TestPhasePortraitASCII_Empty(t *testing.T) {
	if out := PhasePortrait(nil, nil).ASCII(40, 20); out != "" {
		t.Error("expected empty render for no points")
	}
}

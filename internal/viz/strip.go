package viz

import (
	"fmt"
	"math"

	"github.com/railkit/railsim/internal/track"
	"github.com/railkit/railsim/internal/train"
)

// renderStrip draws a top-down window of the route as five text rows:
// train names, car bodies, the rail with buffer stops, scale ticks and
// their position labels. center and span are in meters.
func renderStrip(layout *track.Layout, trains []*train.Train, center, span float64, width int) []string {
	if width < 10 {
		width = 10
	}
	if span <= 0 {
		span = 200
	}
	scale := span / float64(width)
	left := center - span/2

	names := blankRow(width)
	cars := blankRow(width)
	rail := blankRow(width)
	ticks := blankRow(width)
	labels := blankRow(width)

	col := func(p float64) int { return int(math.Floor((p - left) / scale)) }

	// An empty layout is an endless straight; a real one ends at its
	// total length.
	length := layout.Length()
	for c := 0; c < width; c++ {
		p := left + (float64(c)+0.5)*scale
		if length == 0 || (p >= 0 && p <= length) {
			rail[c] = '═'
		}
	}
	for _, b := range layout.Buffers() {
		if c := col(b); c >= 0 && c < width {
			rail[c] = '▌'
		}
	}

	for _, t := range trains {
		if t.State != train.StateAvailable && t.State != train.StateBogus {
			continue
		}
		for _, c := range t.Cars {
			glyph := '█'
			switch c.Status() {
			case train.StatusToppling:
				glyph = '▓'
			case train.StatusDerailed:
				glyph = '▒'
			}
			lo, hi := col(c.RearExtent()), col(c.FrontExtent())
			if hi < 0 || lo >= width {
				continue
			}
			if lo < 0 {
				lo = 0
			}
			if hi >= width {
				hi = width - 1
			}
			for x := lo; x <= hi; x++ {
				cars[x] = glyph
			}
		}

		label := t.Name
		if t.IsPlayer {
			label = "▸" + label
		}
		writeString(names, col(t.Cars[0].CenterPosition())-len([]rune(label))/2, label)
	}

	step := tickStep(span)
	for p := math.Ceil(left/step) * step; p <= left+span; p += step {
		c := col(p)
		if c < 0 || c >= width {
			continue
		}
		ticks[c] = '┴'
		text := fmt.Sprintf("%.0f", p)
		writeString(labels, c-len(text)/2, text)
	}

	return []string{string(names), string(cars), string(rail), string(ticks), string(labels)}
}

func blankRow(width int) []rune {
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}
	return row
}

func writeString(row []rune, start int, s string) {
	for i, ch := range []rune(s) {
		if x := start + i; x >= 0 && x < len(row) {
			row[x] = ch
		}
	}
}

// tickStep picks a round scale interval giving five to eight marks.
func tickStep(span float64) float64 {
	raw := span / 6
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, mult := range []float64{1, 2, 5} {
		if raw <= mult*mag {
			return mult * mag
		}
	}
	return 10 * mag
}

// gradeAt recovers the rail gradient at a track position from the pose
// direction vector.
func gradeAt(layout *track.Layout, position float64) float64 {
	d := layout.Eval(position).Direction
	run := math.Hypot(d.X(), d.Z())
	if run == 0 {
		return 0
	}
	return d.Y() / run
}

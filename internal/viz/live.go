package viz

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/railkit/railsim/internal/track"
	"github.com/railkit/railsim/internal/train"
)

const (
	liveWidth   = 78
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer paints the track strip straight to a terminal while the
// world runs. Register it as an observer; frames beyond the configured
// rate are dropped so rendering never slows the tick.
type LiveRenderer struct {
	layout    *track.Layout
	frameRate int
	lastFrame time.Time
	span      float64
	out       io.Writer
}

func NewLiveRenderer(layout *track.Layout, frameRate int) *LiveRenderer {
	if frameRate < 1 {
		frameRate = 20
	}
	return &LiveRenderer{
		layout:    layout,
		frameRate: frameRate,
		span:      stripSpan,
		out:       os.Stdout,
	}
}

// SetOutput redirects frames away from stdout.
func (r *LiveRenderer) SetOutput(w io.Writer) { r.out = w }

// SetSpan sets how many meters of track one frame covers.
func (r *LiveRenderer) SetSpan(span float64) {
	if span > 0 {
		r.span = span
	}
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor+"\n") }

// OnTick implements the world observer hook.
func (r *LiveRenderer) OnTick(trains []*train.Train, now float64) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.render(trains, now)
}

func (r *LiveRenderer) render(trains []*train.Train, now float64) {
	var b strings.Builder
	b.WriteString(clearScreen)

	focus := focusTrain(trains)
	b.WriteString(fmt.Sprintf("  t=%.2fs\n", now))
	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")

	center := 0.0
	if focus != nil {
		center = focus.Cars[0].CenterPosition()
	}
	for _, row := range renderStrip(r.layout, trains, center, r.span, liveWidth) {
		b.WriteString("  " + row + "\n")
	}

	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")
	for _, t := range trains {
		if t.State != train.StateAvailable && t.State != train.StateBogus {
			continue
		}
		b.WriteString("  " + trainLine(t) + "\n")
	}

	fmt.Fprint(r.out, b.String())
}

func trainLine(t *train.Train) string {
	front := t.Cars[0]
	derailed := 0
	for _, c := range t.Cars {
		if c.Derailed {
			derailed++
		}
	}
	line := fmt.Sprintf("%-12s %8.1f m  %6.2f m/s  notch P%d/B%d",
		t.Name, front.CenterPosition(), front.Specs.CurrentSpeed,
		t.Handles.PowerNotch, t.Handles.BrakeNotch)
	if derailed > 0 {
		line += fmt.Sprintf("  DERAILED %d/%d", derailed, len(t.Cars))
	}
	return line
}

// focusTrain picks the player train, or the first one in the world.
func focusTrain(trains []*train.Train) *train.Train {
	var first *train.Train
	for _, t := range trains {
		if t.State != train.StateAvailable && t.State != train.StateBogus {
			continue
		}
		if first == nil {
			first = t
		}
		if t.IsPlayer {
			return t
		}
	}
	return first
}

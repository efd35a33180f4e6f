package viz

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/railkit/railsim/internal/config"
	"github.com/railkit/railsim/internal/track"
	"github.com/railkit/railsim/internal/train"
)

func stripTrain(t *testing.T, name string, center float64) *train.Train {
	t.Helper()
	c := &train.Car{Length: 20}
	c.FrontAxle.Position = 8
	c.RearAxle.Position = -8
	c.Specs.MassEmpty = 40000
	c.Specs.MassCurrent = 40000
	c.PlaceAt(nil, center)

	tr, err := train.New(name, []*train.Car{c}, nil)
	if err != nil {
		t.Fatalf("building train: %v", err)
	}
	tr.State = train.StateAvailable
	return tr
}

func TestRenderStrip(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 500}}, []float64{290})
	tr := stripTrain(t, "local", 250)
	tr.IsPlayer = true

	rows := renderStrip(layout, []*train.Train{tr}, 250, 100, 50)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if n := len([]rune(row)); n != 50 {
			t.Errorf("row %d: expected width 50, got %d", i, n)
		}
	}

	// 100 m over 50 columns is 2 m per column with the window starting
	// at 200 m, so the 240-260 m car spans columns 20 through 30.
	cars := []rune(rows[1])
	for c := 20; c <= 30; c++ {
		if cars[c] != '█' {
			t.Errorf("column %d: expected car glyph, got %q", c, cars[c])
		}
	}
	if cars[19] != ' ' || cars[31] != ' ' {
		t.Errorf("expected blank columns around the car, got %q %q", cars[19], cars[31])
	}

	rail := []rune(rows[2])
	if rail[0] != '═' || rail[44] != '═' {
		t.Errorf("expected rail glyphs, got %q %q", rail[0], rail[44])
	}
	if rail[45] != '▌' {
		t.Errorf("expected buffer glyph at column 45, got %q", rail[45])
	}

	if !strings.Contains(rows[0], "▸local") {
		t.Errorf("expected player marker in name row, got %q", rows[0])
	}

	ticks := []rune(rows[3])
	for _, c := range []int{0, 10, 20, 30, 40} {
		if ticks[c] != '┴' {
			t.Errorf("column %d: expected tick, got %q", c, ticks[c])
		}
	}
	if !strings.Contains(rows[4], "240") || !strings.Contains(rows[4], "280") {
		t.Errorf("expected position labels, got %q", rows[4])
	}
}

func TestRenderStrip_DerailedGlyph(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 500}}, nil)
	tr := stripTrain(t, "local", 250)
	tr.Cars[0].Derail()

	rows := renderStrip(layout, []*train.Train{tr}, 250, 100, 50)
	cars := []rune(rows[1])
	for c := 20; c <= 30; c++ {
		if cars[c] != '▒' {
			t.Errorf("column %d: expected derailed glyph, got %q", c, cars[c])
		}
	}
}

func TestRenderStrip_SkipsPendingTrains(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 500}}, nil)
	tr := stripTrain(t, "waiting", 250)
	tr.State = train.StatePending

	rows := renderStrip(layout, []*train.Train{tr}, 250, 100, 50)
	if strings.TrimSpace(rows[1]) != "" {
		t.Errorf("expected empty car row for pending train, got %q", rows[1])
	}
	if strings.Contains(rows[0], "waiting") {
		t.Errorf("expected no name for pending train, got %q", rows[0])
	}
}

func TestRenderStrip_ClipsCarsAtEdges(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 500}}, nil)
	half := stripTrain(t, "edge", 195)
	gone := stripTrain(t, "gone", 350)

	rows := renderStrip(layout, []*train.Train{half, gone}, 250, 100, 50)
	cars := []rune(rows[1])
	for c := 0; c <= 2; c++ {
		if cars[c] != '█' {
			t.Errorf("column %d: expected clipped car glyph, got %q", c, cars[c])
		}
	}
	for c := 3; c < 50; c++ {
		if cars[c] != ' ' {
			t.Errorf("column %d: expected blank, got %q", c, cars[c])
		}
	}
}

func TestTickStep(t *testing.T) {
	cases := []struct {
		span float64
		want float64
	}{
		{200, 50},
		{500, 100},
		{1000, 200},
		{12, 2},
	}
	for _, c := range cases {
		if got := tickStep(c.span); got != c.want {
			t.Errorf("tickStep(%v): expected %v, got %v", c.span, c.want, got)
		}
	}
}

func TestGradeAt(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 100, Grade: 0.03}}, nil)
	if g := gradeAt(layout, 50); g < 0.03-1e-9 || g > 0.03+1e-9 {
		t.Errorf("expected grade 0.03, got %v", g)
	}

	flat := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 100}}, nil)
	if g := gradeAt(flat, 50); g != 0 {
		t.Errorf("expected zero grade, got %v", g)
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{0, 7, 0, 7}, 10); got != "▁█▁█" {
		t.Errorf("expected alternating sparkline, got %q", got)
	}
	if got := sparkline([]float64{3, 3, 3}, 10); got != "▁▁▁" {
		t.Errorf("expected flat sparkline, got %q", got)
	}
	long := make([]float64, 200)
	if got := sparkline(long, 48); len([]rune(got)) != 48 {
		t.Errorf("expected sparkline clipped to 48 runes, got %d", len([]rune(got)))
	}
	if got := sparkline(nil, 10); got != "" {
		t.Errorf("expected empty sparkline, got %q", got)
	}
}

func newTestModel(t *testing.T, scenario *config.Scenario) Model {
	t.Helper()
	m, err := NewModel(scenario)
	if err != nil {
		t.Fatalf("building model: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func pressRune(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func pressKey(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(Model)
}

func TestModelPauseToggle(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	if m.paused {
		t.Fatal("expected model to start running")
	}
	m = pressRune(t, m, " ")
	if !m.paused {
		t.Error("expected space to pause")
	}
	m = pressRune(t, m, " ")
	if m.paused {
		t.Error("expected space to resume")
	}
}

func TestModelTickAdvances(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)

	if now := m.world.Now(); now < 0.049 || now > 0.051 {
		t.Errorf("expected one frame of simulated time, got %v", now)
	}
	if cmd == nil {
		t.Error("expected the frame tick to re-arm")
	}
	if len(m.history) != 1 {
		t.Errorf("expected 1 history sample, got %d", len(m.history))
	}
}

func TestModelTickPausedHolds(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	m = pressRune(t, m, " ")
	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)

	if now := m.world.Now(); now != 0 {
		t.Errorf("expected paused world to hold at 0, got %v", now)
	}
	if cmd == nil {
		t.Error("expected the frame tick to re-arm while paused")
	}
}

func TestModelPowerNotchClamps(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	for i := 0; i < 6; i++ {
		m = pressKey(t, m, tea.KeyUp)
	}
	if got := m.focused().Handles.PowerNotch; got != 4 {
		t.Errorf("expected power notch clamped to 4, got %d", got)
	}
	for i := 0; i < 10; i++ {
		m = pressKey(t, m, tea.KeyDown)
	}
	if got := m.focused().Handles.PowerNotch; got != 0 {
		t.Errorf("expected power notch floored at 0, got %d", got)
	}
}

func TestModelBrakeNotchClamps(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	for i := 0; i < 12; i++ {
		m = pressKey(t, m, tea.KeyRight)
	}
	if got := m.focused().Handles.BrakeNotch; got != 8 {
		t.Errorf("expected brake notch clamped to 8, got %d", got)
	}
	for i := 0; i < 12; i++ {
		m = pressKey(t, m, tea.KeyLeft)
	}
	if got := m.focused().Handles.BrakeNotch; got != 0 {
		t.Errorf("expected brake notch floored at 0, got %d", got)
	}
}

func TestModelReverserCycle(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	want := []int{1, -1, 0}
	for _, r := range want {
		m = pressRune(t, m, "r")
		if got := m.focused().Handles.Reverser; got != r {
			t.Errorf("expected reverser %d, got %d", r, got)
		}
	}
}

func TestModelBrakeFlags(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	m = pressRune(t, m, "h")
	if !m.focused().Handles.HoldBrake {
		t.Error("expected hold brake on")
	}
	m = pressRune(t, m, "e")
	if !m.focused().Handles.EmergencyBrake {
		t.Error("expected emergency brake on")
	}
	m = pressRune(t, m, "h")
	m = pressRune(t, m, "e")
	if m.focused().Handles.HoldBrake || m.focused().Handles.EmergencyBrake {
		t.Error("expected both brake flags released")
	}
}

func TestModelFocusCycle(t *testing.T) {
	m := newTestModel(t, config.GetPreset("head-on"))
	if m.focus != 0 {
		t.Fatalf("expected initial focus 0, got %d", m.focus)
	}
	m = pressKey(t, m, tea.KeyTab)
	if m.focus != 1 {
		t.Errorf("expected focus 1 after tab, got %d", m.focus)
	}
	if len(m.history) != 0 {
		t.Errorf("expected history cleared on focus change, got %d samples", len(m.history))
	}
	m = pressKey(t, m, tea.KeyTab)
	if m.focus != 0 {
		t.Errorf("expected focus to wrap to 0, got %d", m.focus)
	}
}

func TestModelSpeedBounds(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	for i := 0; i < 10; i++ {
		m = pressRune(t, m, "+")
	}
	if m.speed != 16 {
		t.Errorf("expected speed capped at 16, got %v", m.speed)
	}
	for i := 0; i < 12; i++ {
		m = pressRune(t, m, "-")
	}
	if m.speed != 0.25 {
		t.Errorf("expected speed floored at 0.25, got %v", m.speed)
	}
	m = pressRune(t, m, "0")
	if m.speed != 1 {
		t.Errorf("expected speed reset to 1, got %v", m.speed)
	}
}

func TestModelRebuild(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if m.world.Now() == 0 {
		t.Fatal("expected world to have advanced before rebuild")
	}

	m = pressRune(t, m, "R")
	if now := m.world.Now(); now != 0 {
		t.Errorf("expected rebuilt world at time 0, got %v", now)
	}
	if len(m.history) != 0 || m.focus != 0 {
		t.Errorf("expected rebuild to clear history and focus, got %d samples, focus %d",
			len(m.history), m.focus)
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t, config.DefaultScenario())
	view := m.View()
	if !strings.Contains(view, "default") {
		t.Errorf("expected scenario name in view")
	}
	if !strings.Contains(view, "local") {
		t.Errorf("expected train name in view")
	}
	if !strings.Contains(view, "space pause") {
		t.Errorf("expected key help in view")
	}
}

func TestLiveRendererFrameCap(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, []track.Segment{{Length: 500}}, nil)
	tr := stripTrain(t, "local", 250)
	tr.IsPlayer = true

	var buf bytes.Buffer
	r := NewLiveRenderer(layout, 5)
	r.SetOutput(&buf)

	r.OnTick([]*train.Train{tr}, 0)
	if !strings.Contains(buf.String(), "t=0.00s") {
		t.Fatalf("expected first frame rendered, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "local") {
		t.Errorf("expected train line in frame")
	}

	n := buf.Len()
	r.OnTick([]*train.Train{tr}, 0.01)
	if buf.Len() != n {
		t.Error("expected second immediate frame to be dropped")
	}
}

func TestLiveRendererCursorToggle(t *testing.T) {
	layout := track.NewLayout(track.StandardGauge, nil, nil)
	var buf bytes.Buffer
	r := NewLiveRenderer(layout, 5)
	r.SetOutput(&buf)

	r.Start()
	if !strings.Contains(buf.String(), hideCursor) {
		t.Error("expected Start to hide the cursor")
	}
	r.Stop()
	if !strings.Contains(buf.String(), showCursor) {
		t.Error("expected Stop to restore the cursor")
	}
}

func TestFocusTrain(t *testing.T) {
	a := stripTrain(t, "first", 100)
	b := stripTrain(t, "driver", 300)
	b.IsPlayer = true

	if got := focusTrain([]*train.Train{a, b}); got != b {
		t.Errorf("expected player train focused, got %s", got.Name)
	}
	if got := focusTrain([]*train.Train{a}); got != a {
		t.Errorf("expected first train focused, got %s", got.Name)
	}
	a.State = train.StateDisposed
	if got := focusTrain([]*train.Train{a}); got != nil {
		t.Errorf("expected nil focus with no live trains, got %s", got.Name)
	}
}

package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/railkit/railsim/internal/brakes"
	"github.com/railkit/railsim/internal/config"
	"github.com/railkit/railsim/internal/events"
	"github.com/railkit/railsim/internal/train"
	"github.com/railkit/railsim/internal/world"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	frameInterval = 50 * time.Millisecond
	historyCap    = 120
	logCap        = 6
	stripSpan     = 240.0
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the interactive cab view. It owns the world and steps it
// from the frame ticker, so it must not be shared with another driver.
type Model struct {
	scenario *config.Scenario
	world    *world.World
	events   <-chan events.Event
	log      []events.Event

	focus    int
	paused   bool
	finished bool
	speed    float64
	history  []float64

	width  int
	height int
}

func NewModel(scenario *config.Scenario) (Model, error) {
	w, err := scenario.Build()
	if err != nil {
		return Model{}, err
	}
	return Model{
		scenario: scenario,
		world:    w,
		events:   w.Events(64),
		speed:    1.0,
		width:    100,
		height:   30,
	}, nil
}

// Close releases the world. Call after the program exits.
func (m Model) Close() {
	if m.world != nil {
		m.world.Close()
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && !m.finished {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one frame's worth of simulated time, scaled by the
// speed multiplier.
func (m *Model) advance() {
	dt := m.scenario.Dt
	steps := int(frameInterval.Seconds()*m.speed/dt + 0.5)
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		if m.world.Now() >= m.scenario.Duration {
			m.finished = true
			break
		}
		m.world.Step(dt)
	}

	m.history = append(m.history, m.focused().Cars[0].Specs.CurrentSpeed)
	if len(m.history) > historyCap {
		m.history = m.history[1:]
	}
	m.drainEvents()
}

func (m *Model) drainEvents() {
	for {
		select {
		case e, ok := <-m.events:
			if !ok {
				return
			}
			m.log = append(m.log, e)
			if len(m.log) > logCap {
				m.log = m.log[1:]
			}
		default:
			return
		}
	}
}

func (m Model) focused() *train.Train {
	return m.world.Trains[m.focus]
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	t := m.focused()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "tab":
		m.focus = (m.focus + 1) % len(m.world.Trains)
		m.history = nil
	case "up":
		if t.Handles.PowerNotch < m.maxPowerNotch(t) {
			t.Handles.PowerNotch++
		}
	case "down":
		if t.Handles.PowerNotch > 0 {
			t.Handles.PowerNotch--
		}
	case "right":
		if t.Handles.BrakeNotch < m.brakeNotches() {
			t.Handles.BrakeNotch++
		}
	case "left":
		if t.Handles.BrakeNotch > 0 {
			t.Handles.BrakeNotch--
		}
	case "r":
		switch t.Handles.Reverser {
		case -1:
			t.Handles.Reverser = 0
		case 0:
			t.Handles.Reverser = 1
		default:
			t.Handles.Reverser = -1
		}
	case "h":
		t.Handles.HoldBrake = !t.Handles.HoldBrake
	case "e":
		t.Handles.EmergencyBrake = !t.Handles.EmergencyBrake
	case "R":
		m.reset()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *Model) reset() {
	w, err := m.scenario.Build()
	if err != nil {
		return
	}
	m.world.Close()
	m.world = w
	m.events = w.Events(64)
	m.log = nil
	m.history = nil
	m.focus = 0
	m.finished = false
}

func (m Model) maxPowerNotch(t *train.Train) int {
	top := 0
	for _, c := range t.Cars {
		if n := len(c.Specs.AccelerationCurves); n > top {
			top = n
		}
	}
	return top
}

func (m Model) brakeNotches() int {
	if n := m.scenario.Brakes.Notches; n >= 1 {
		return n
	}
	return brakes.DefaultConfig().Notches
}

func (m Model) View() string {
	var b strings.Builder

	statusIcon, statusText := green.Render("●"), green.Render("running")
	switch {
	case m.finished:
		statusIcon, statusText = dim.Render("■"), dim.Render("done")
	case m.paused:
		statusIcon, statusText = yellow.Render("○"), yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n  %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.scenario.Name), statusText,
		dim.Render(fmt.Sprintf("x%.2g", m.speed))))

	progress := m.world.Now() / m.scenario.Duration
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("  %s %s\n\n", bar,
		dim.Render(fmt.Sprintf("%.1fs/%.0fs", m.world.Now(), m.scenario.Duration))))

	stripWidth := m.width - 4
	if stripWidth < 40 {
		stripWidth = 40
	}
	t := m.focused()
	for _, row := range renderStrip(m.world.Layout, m.world.Trains, t.Cars[0].CenterPosition(), stripSpan, stripWidth) {
		b.WriteString("  " + row + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.viewFocused(t))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("  %s %s\n", dim.Render("v"), cyan.Render(sparkline(m.history, 48))))
	}

	for _, e := range m.log {
		line := fmt.Sprintf("%7.2fs  %s  %s car %d", e.Time, e.Kind, e.Train, e.Car)
		style := yellow
		if e.Kind == events.Derailment {
			style = red
		}
		b.WriteString("  " + style.Render(line) + "\n")
	}

	b.WriteString("\n" + dim.Render("  space pause  tab focus  ↑↓ power  ←→ brake  r reverser  h hold  e emergency  R rebuild  ± speed  q quit") + "\n")
	return b.String()
}

func (m Model) viewFocused(t *train.Train) string {
	var b strings.Builder

	speed := t.Cars[0].Specs.CurrentSpeed
	accel := t.Cars[0].Specs.CurrentAcceleration
	b.WriteString(fmt.Sprintf("  %s %s  %s  %s\n",
		cyan.Render("▸"), white.Render(t.Name), dim.Render(t.State.String()),
		magenta.Render(fmt.Sprintf("%6.2f m/s (%5.1f km/h)  %+5.2f m/s²", speed, speed*3.6, accel))))

	pose := m.world.Layout.Eval(t.Cars[0].CenterPosition())
	grade := gradeAt(m.world.Layout, t.Cars[0].CenterPosition())
	trackInfo := fmt.Sprintf("grade %+.1f%%", grade*100)
	if pose.CurveRadius != 0 {
		trackInfo += fmt.Sprintf("  radius %.0f m  cant %.0f mm", math.Abs(pose.CurveRadius), pose.CurveCant*1000)
	}
	b.WriteString("    " + dim.Render(trackInfo) + "\n")

	b.WriteString(fmt.Sprintf("    %s %s  %s %s  %s\n",
		dim.Render("power"), notchBar(t.Handles.PowerNotch, m.maxPowerNotch(t)),
		dim.Render("brake"), notchBar(t.Handles.BrakeNotch, m.brakeNotches()),
		m.flagLine(t)))
	return b.String()
}

func (m Model) flagLine(t *train.Train) string {
	parts := []string{reverserGlyph(t.Handles.Reverser)}
	if t.Handles.HoldBrake {
		parts = append(parts, yellow.Render("HOLD"))
	}
	if t.Handles.EmergencyBrake {
		parts = append(parts, red.Render("EMERG"))
	}
	derailed := 0
	for _, c := range t.Cars {
		if c.Derailed {
			derailed++
		}
	}
	if derailed > 0 {
		parts = append(parts, red.Render(fmt.Sprintf("DERAILED %d/%d", derailed, len(t.Cars))))
	}
	return strings.Join(parts, "  ")
}

func reverserGlyph(r int) string {
	switch r {
	case 1:
		return green.Render("FWD")
	case -1:
		return yellow.Render("REV")
	default:
		return dim.Render("NEU")
	}
}

func notchBar(notch, top int) string {
	if top < 1 {
		top = 1
	}
	if notch > top {
		notch = top
	}
	return white.Render(fmt.Sprintf("[%s%s] %d",
		strings.Repeat("=", notch), strings.Repeat("-", top-notch), notch))
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	start := 0
	if len(data) > width {
		start = len(data) - width
	}
	span := maxVal - minVal
	var sb strings.Builder
	for _, v := range data[start:] {
		idx := 0
		if span > 0 {
			idx = int((v - minVal) / span * 7)
		}
		if idx > 7 {
			idx = 7
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

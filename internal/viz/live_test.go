package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/sim"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestModel(t *testing.T) (Model, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := sim.New(640, 384, config.DefaultConfig(), sim.WithClock(clk.Now))
	return NewModel(s, Options{}), clk
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelCanvasSize(t *testing.T) {
	m, _ := newTestModel(t)
	if m.canvas.Width != 80 || m.canvas.Height != 24 {
		t.Errorf("canvas %dx%d, want 80x24", m.canvas.Width, m.canvas.Height)
	}
}

func TestToWorld(t *testing.T) {
	m, _ := newTestModel(t)
	tests := []struct {
		x, y   int
		wx, wy float64
		ok     bool
	}{
		{canvasPadX, canvasPadY, 4, 8, true},
		{12, 6, 84, 88, true},
		{0, 0, -12, -8, false},
		{canvasPadX + 80, canvasPadY, 644, 8, false},
	}
	for _, tt := range tests {
		p, ok := m.toWorld(tt.x, tt.y)
		if ok != tt.ok || p.X != tt.wx || p.Y != tt.wy {
			t.Errorf("toWorld(%d,%d) = %v,%v want (%v,%v),%v", tt.x, tt.y, p, ok, tt.wx, tt.wy, tt.ok)
		}
	}
}

func TestMouseCreatesStar(t *testing.T) {
	m, clk := newTestModel(t)

	m = update(t, m, tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.sim.Creating() {
		t.Fatal("press inside the canvas should start a gesture")
	}
	clk.t = clk.t.Add(time.Second)
	m = update(t, m, tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionRelease})

	bodies := m.sim.Bodies()
	if len(bodies) != 1 {
		t.Fatalf("got %d bodies, want 1", len(bodies))
	}
	if bodies[0].Pos.X != 84 || bodies[0].Pos.Y != 88 {
		t.Errorf("star at %v, want (84,88)", bodies[0].Pos)
	}
	if bodies[0].Mass <= config.DefaultMinMass {
		t.Errorf("held star has mass %v", bodies[0].Mass)
	}
}

func TestMouseOutsideCanvas(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.sim.Creating() {
		t.Error("press on the padding started a gesture")
	}

	m = update(t, m, tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if m.sim.Creating() {
		t.Error("right click should cancel the gesture")
	}
}

func TestKeyToggles(t *testing.T) {
	m, _ := newTestModel(t)
	base := m.sim.Config()

	m = update(t, m, key("m"))
	if m.sim.Config().EnableMerging == base.EnableMerging {
		t.Error("m did not toggle merging")
	}
	m = update(t, m, key("w"))
	if m.sim.Config().Wraps() == base.Wraps() || m.sim.Bounds().Wrap != m.sim.Config().Wraps() {
		t.Error("w did not toggle wrapping")
	}
	m = update(t, m, key("p"))
	if !m.sim.Config().Playground() {
		t.Error("p did not enable the playground")
	}
	m = update(t, m, key(" "))
	if m.running {
		t.Error("space did not pause")
	}
	theme := m.theme.Name
	m = update(t, m, key("t"))
	if m.theme.Name == theme {
		t.Error("t did not change the theme")
	}
}

func TestTickAndClear(t *testing.T) {
	m, _ := newTestModel(t)
	m.sim.BeginCreation(100, 100)
	m.sim.FinishCreation()
	m.sim.BeginCreation(300, 100)
	m.sim.FinishCreation()

	now := time.Now()
	m = update(t, m, TickMsg(now))
	m = update(t, m, TickMsg(now.Add(time.Second/fps)))
	if m.sim.Stats().Tick != 2 {
		t.Errorf("tick = %d, want 2", m.sim.Stats().Tick)
	}
	if len(m.energyHistory) != 2 {
		t.Errorf("energy history has %d samples", len(m.energyHistory))
	}
	if !strings.Contains(m.View(), "ORBITLAB") {
		t.Error("view is missing the header")
	}

	m = update(t, m, key("c"))
	if m.sim.Len() != 0 {
		t.Error("c did not clear the stars")
	}
	if len(m.energyHistory) != 0 || len(m.countHistory) != 0 {
		t.Errorf("c left history: %d energy, %d count samples", len(m.energyHistory), len(m.countHistory))
	}
}

func TestPausedTickDoesNotStep(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, key(" "))
	m = update(t, m, TickMsg(time.Now()))
	if m.sim.Stats().Tick != 0 {
		t.Error("paused model advanced the simulation")
	}
}

func TestResize(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.canvas.Width != 70 || m.canvas.Height != 38 {
		t.Errorf("canvas %dx%d, want 70x38", m.canvas.Width, m.canvas.Height)
	}
	b := m.sim.Bounds()
	if b.Width != 560 || b.Height != 608 {
		t.Errorf("bounds %vx%v, want 560x608", b.Width, b.Height)
	}
}

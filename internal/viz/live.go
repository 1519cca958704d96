package viz

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/sim"
)

const (
	fps             = 60
	historyCapacity = 600

	// world pixels per braille dot
	worldPerDot = 4.0

	canvasPadX, canvasPadY = 2, 1

	minCols, minRows = 10, 5
)

type TickMsg time.Time

// Options tune a Model. Zero values pick defaults.
type Options struct {
	Theme   string
	GIFPath string
	Logger  *log.Logger
}

// Model is the interactive view over a Simulation.
type Model struct {
	sim    *sim.Simulation
	canvas *Canvas
	theme  Theme
	styles styles
	logger *log.Logger

	running  bool
	showHelp bool
	lastTick time.Time
	err      error

	energyHistory []float64
	countHistory  []float64

	// preview radius follows the gesture through a spring
	spring   harmonica.Spring
	previewR float64
	previewV float64

	recorder *Recorder
	gifPath  string
	status   string
}

// NewModel sizes the canvas to the simulation bounds.
func NewModel(s *sim.Simulation, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "orbitlab.gif"
	}
	b := s.Bounds()
	cols := max(int(math.Ceil(b.Width/(2*worldPerDot))), minCols)
	rows := max(int(math.Ceil(b.Height/(4*worldPerDot))), minRows)

	theme := GetTheme(opts.Theme)
	return Model{
		sim:     s,
		canvas:  NewCanvas(cols, rows),
		theme:   theme,
		styles:  newStyles(theme),
		logger:  opts.Logger,
		running: true,
		spring:  harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.5),
		gifPath: opts.GIFPath,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		m.step(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg := m.sim.Config()
	switch msg.String() {
	case "q", "ctrl+c":
		if m.recorder != nil {
			m.stopRecording()
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "c":
		m.sim.ClearAllBodies()
		m.energyHistory = m.energyHistory[:0]
		m.countHistory = m.countHistory[:0]
		m.err = nil
	case "m":
		cfg.EnableMerging = !cfg.EnableMerging
		m.sim.UpdateConfig(cfg)
	case "w":
		if cfg.Wraps() {
			cfg.Boundary = config.BoundaryNone
		} else {
			cfg.Boundary = config.BoundaryWrap
		}
		m.sim.UpdateConfig(cfg)
	case "p":
		if cfg.Playground() {
			cfg.Mode = config.ModeNBody
		} else {
			cfg.Mode = config.ModeOrbitPlayground
		}
		m.sim.UpdateConfig(cfg)
	case "esc":
		m.sim.CancelCreation()
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "g":
		if m.recorder != nil {
			m.stopRecording()
		} else {
			m.recorder = &Recorder{}
			m.status = ""
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) stopRecording() {
	if err := m.recorder.Save(m.gifPath); err != nil {
		m.logger.Warn("gif not saved", "err", err)
		m.status = "gif: " + err.Error()
	} else {
		m.logger.Info("gif saved", "path", m.gifPath, "frames", m.recorder.Len())
		m.status = "saved " + m.gifPath
	}
	m.recorder = nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonRight {
			m.sim.CancelCreation()
			return
		}
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if p, ok := m.toWorld(msg.X, msg.Y); ok {
			m.sim.BeginCreation(p.X, p.Y)
		}
	case tea.MouseActionMotion:
		if !m.sim.Creating() {
			return
		}
		p, _ := m.toWorld(msg.X, msg.Y)
		m.sim.UpdateCreation(p.X, p.Y)
	case tea.MouseActionRelease:
		if !m.sim.Creating() {
			return
		}
		p, _ := m.toWorld(msg.X, msg.Y)
		m.sim.UpdateCreation(p.X, p.Y)
		m.sim.FinishCreation()
	}
}

// toWorld maps a terminal cell to the world position at its center. ok is
// false when the cell lies outside the canvas.
func (m *Model) toWorld(x, y int) (dynamo.Vec, bool) {
	col, row := x-canvasPadX, y-canvasPadY
	p := dynamo.Vec{
		X: (float64(col) + 0.5) * 2 * worldPerDot,
		Y: (float64(row) + 0.5) * 4 * worldPerDot,
	}
	ok := col >= 0 && row >= 0 && col < m.canvas.Width && row < m.canvas.Height
	return p, ok
}

func toDots(p dynamo.Vec) (int, int) {
	return int(math.Floor(p.X / worldPerDot)), int(math.Floor(p.Y / worldPerDot))
}

func (m *Model) resize(w, h int) {
	cols := max(w-panelWidth-2*canvasPadX-2, minCols)
	rows := max(h-2*canvasPadY, minRows)
	m.canvas = NewCanvas(cols, rows)
	m.sim.Resize(float64(cols)*2*worldPerDot, float64(rows)*4*worldPerDot)
}

func (m *Model) step(now time.Time) {
	dt := 1.0 / fps
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick).Seconds()
	}
	m.lastTick = now

	if m.running {
		if err := m.sim.Tick(dt); err != nil {
			m.logger.Warn("tick", "err", err)
			m.err = err
		}
		st := m.sim.Stats()
		m.energyHistory = appendCapped(m.energyHistory, st.Energy)
		m.countHistory = appendCapped(m.countHistory, float64(st.Bodies))
	}

	target := 0.0
	if p, ok := m.sim.CreationPreview(); ok {
		target = p.Radius
	}
	m.previewR, m.previewV = m.spring.Update(m.previewR, m.previewV, target)

	m.draw()
	if m.recorder != nil {
		m.recorder.Capture(m.canvas)
	}
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	return h
}

func (m *Model) draw() {
	m.canvas.Clear()
	cw, _ := m.canvas.Dots()

	for _, b := range m.sim.Bodies() {
		for i := 1; i < len(b.Trail); i++ {
			x0, y0 := toDots(b.Trail[i-1].Pos)
			x1, y1 := toDots(b.Trail[i].Pos)
			// a jump across a wrapped edge is not a line
			if absInt(x1-x0) > cw/2 {
				continue
			}
			m.canvas.DrawLine(x0, y0, x1, y1)
		}
		x, y := toDots(b.Pos)
		m.canvas.FillDisc(x, y, int(math.Round(b.Radius()/worldPerDot)))
	}

	if p, ok := m.sim.CreationPreview(); ok {
		x, y := toDots(p.Pos)
		m.canvas.DrawCircle(x, y, int(math.Round(m.previewR/worldPerDot)))
	}

	ripples, now := m.sim.Ripples()
	for _, r := range ripples {
		if r.Progress(now) >= 1 {
			continue
		}
		x, y := toDots(r.Pos)
		m.canvas.DrawCircle(x, y, int(math.Round(r.Radius(now)/worldPerDot)))
	}
}

func (m Model) onOff(on bool) string {
	if on {
		return m.styles.on.Render("on")
	}
	return m.styles.off.Render("off")
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

func (m Model) View() string {
	st := m.sim.Stats()
	cfg := m.sim.Config()

	var s strings.Builder
	s.WriteString(m.styles.header.Render("ORBITLAB") + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status)
	if m.recorder != nil {
		s.WriteString("  " + m.styles.rec.Render(fmt.Sprintf("● REC %d", m.recorder.Len())))
	}
	s.WriteString("\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(m.styles.graph.Render(chart) + "\n\n")
	}

	s.WriteString(m.row("Time", fmt.Sprintf("%.2fs", st.Time)))
	s.WriteString(m.row("Stars", fmt.Sprintf("%d / %d", st.Bodies, cfg.MaxStars)))
	s.WriteString(m.row("Mass", fmt.Sprintf("%.2f", st.TotalMass)))
	s.WriteString(m.row("Energy", fmt.Sprintf("%.3g", st.Energy)))
	s.WriteString(m.row("Momentum", fmt.Sprintf("%.3g", dynamo.Len(st.Momentum))))
	s.WriteString(m.row("History", Sparkline(m.countHistory, 20)))

	s.WriteString("\n")
	s.WriteString(m.styles.label.Render("Merging") + m.onOff(cfg.EnableMerging) + "\n")
	s.WriteString(m.styles.label.Render("Wrap") + m.onOff(cfg.Wraps()) + "\n")
	s.WriteString(m.styles.label.Render("Playground") + m.onOff(cfg.Playground()) + "\n")

	if p, ok := m.sim.CreationPreview(); ok {
		frac := 1.0
		if cfg.HoldToMaxSeconds > 0 {
			frac = p.Hold / cfg.HoldToMaxSeconds
		}
		s.WriteString("\n" + m.row("Hold", ProgressBar(frac, 16)))
		s.WriteString(m.row("Mass", fmt.Sprintf("%.2f", p.Mass)))
	}

	if d, ok := m.sim.DebugStats(); ok {
		s.WriteString("\nLAUNCH\n")
		s.WriteString(m.row("Drag", fmt.Sprintf("%.1f", d.HoldDragSpeed)))
		s.WriteString(m.row("Flick", fmt.Sprintf("%.1f", d.ReleaseFlickSpeed)))
		s.WriteString(m.row("Compressed", fmt.Sprintf("%.1f", d.CompressedSpeed)))
		s.WriteString(m.row("Launch", fmt.Sprintf("%.1f", d.FinalLaunchSpeed)))
		s.WriteString(m.row("v circ/esc", fmt.Sprintf("%.1f / %.1f", d.EstimatedVCirc, d.EstimatedVEsc)))
	}

	if m.err != nil {
		s.WriteString("\n" + m.styles.rec.Render(m.err.Error()) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + m.styles.off.Render(m.status) + "\n")
	}
	s.WriteString(m.styles.help.Render("─────────────────────\nSP:Pause C:Clear Q:Quit\nM:Merge W:Wrap P:Play\nT:Theme G:Record ?:Help"))

	canvasView := m.styles.canvas.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.styles.panel.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Mouse    - Hold to grow, flick to   ║
║             launch a star            ║
║  Right    - Cancel the current star  ║
║  Space    - Pause/Resume simulation  ║
║  C        - Clear all stars          ║
║  M        - Toggle merging           ║
║  W        - Toggle wrap-around       ║
║  P        - Toggle orbit playground  ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Package tui provides the Bubble Tea experiment host.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/fitts/internal/engine"
	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/sim"
)

const (
	defaultTrackCols = 60
	coarseFactor     = 5
)

var (
	targetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	dockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	objectStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	heldStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	railStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	completeBanner = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#52C41A")).
			Padding(0, 2)
)

type tickMsg time.Time

// Model implements the Bubble Tea experiment host.
type Model struct {
	eng   *engine.Engine
	world *sim.World
	keys  keyMap
	help  help.Model
	span  span

	tick    time.Duration
	started time.Time
	last    engine.Output
	warning string
	endErr  error

	width  int
	height int
}

// NewModel wires the engine to a simulated scene. The session must already be started.
func NewModel(eng *engine.Engine, world *sim.World, design model.Design, tick time.Duration) *Model {
	world.Apply(eng.Target())
	m := &Model{
		eng:   eng,
		world: world,
		keys:  defaultKeyMap(),
		help:  help.New(),
		span:  sceneSpan(design),
		tick:  tick,
	}
	m.last = engine.Output{
		Target: eng.Target(),
		Status: engine.StatusIntro,
		Trial:  1,
		Total:  eng.Total(),
	}
	return m
}

func sceneSpan(design model.Design) span {
	lo, hi := design.Start, design.Start
	for _, t := range design.Targets {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	maxWidth := design.InitialWidth + float64(design.WidthLevels-1)*design.WidthStep
	return span{lo: lo - maxWidth, hi: hi + maxWidth}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.started = time.Now()
	return m.scheduleTick()
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.step(time.Time(msg))
		return m, m.scheduleTick()
	case tea.ResumeMsg:
		if err := m.eng.Resume(context.Background()); err != nil {
			m.warning = fmt.Sprintf("failed to resume trial log: %v", err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.tick.Seconds()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.endErr = m.eng.EndSession(context.Background())
		return m, tea.Quit
	case key.Matches(msg, m.keys.Suspend):
		if err := m.eng.Pause(context.Background()); err != nil {
			m.warning = fmt.Sprintf("failed to pause trial log: %v", err)
		}
		return m, tea.Suspend
	case key.Matches(msg, m.keys.Grab):
		m.world.Grabbing = !m.world.Grabbing
	case key.Matches(msg, m.keys.Left):
		m.world.Nudge(-1, step)
	case key.Matches(msg, m.keys.Right):
		m.world.Nudge(1, step)
	case key.Matches(msg, m.keys.CoarseLeft):
		m.world.Nudge(-1, step*coarseFactor)
	case key.Matches(msg, m.keys.CoarseRight):
		m.world.Nudge(1, step*coarseFactor)
	}
	return m, nil
}

// step runs one engine tick, applies the returned target and lets the
// released object slide home.
func (m *Model) step(now time.Time) {
	t := now.Sub(m.started).Seconds()
	out := m.eng.Tick(context.Background(), m.world.Input(t))
	m.world.Apply(out.Target)
	m.world.Step(m.tick.Seconds())
	if out.Warning != nil {
		m.warning = fmt.Sprintf("trial not saved: %v", out.Warning)
	}
	m.last = out
}

// EndErr returns the error from ending the session on quit, if any.
func (m *Model) EndErr() error {
	return m.endErr
}

// View implements tea.Model.
func (m *Model) View() string {
	cols := defaultTrackCols
	if m.width > 8 {
		cols = m.width - 4
	}
	content := strings.Join([]string{
		m.renderScene(cols),
		"",
		m.renderStatus(cols),
	}, "\n")
	footer := m.renderFooter(cols)
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderScene(cols int) string {
	tStyle := targetStyle
	if m.last.Docked {
		tStyle = dockedStyle
	}
	oStyle := objectStyle
	if m.world.Grabbing {
		oStyle = heldStyle
	}
	tFrom, tTo := m.span.cells(m.world.Target, m.world.Width, cols)
	oFrom, oTo := m.span.cells(m.world.Position, m.world.Width, cols)
	rows := []string{
		tStyle.Render(renderRow(tFrom, tTo, cols, targetCell)),
		oStyle.Render(renderRow(oFrom, oTo, cols, objectCell)),
		railStyle.Render(renderRail(m.span.column(m.world.Home, cols), cols)),
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderStatus(cols int) string {
	lines := strings.Split(m.last.Status, "\n")
	for i, line := range lines {
		lines[i] = truncate(line, cols)
	}
	status := statusStyle.Render(strings.Join(lines, "\n"))
	if m.last.Complete {
		status = completeBanner.Render(status)
	}
	if m.warning != "" {
		status += "\n" + warningStyle.Render(truncate(m.warning, cols))
	}
	return status
}

func (m *Model) renderFooter(cols int) string {
	segments := []string{fmt.Sprintf("Progress %d/%d", m.eng.Completed(), m.eng.Total())}
	if m.last.Docked {
		segments = append(segments, "docked")
	}
	progress := footerStyle.Render(truncate(strings.Join(segments, "  "), cols))
	return progress + "  " + m.help.View(m.keys)
}

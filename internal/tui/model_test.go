package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/fitts/internal/engine"
	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/sim"
	"github.com/verte-zerg/fitts/internal/trialog"
)

const testTick = 20 * time.Millisecond

func newTestModel(t *testing.T) (*Model, *engine.Engine, string) {
	t.Helper()
	design := model.DefaultDesign()
	path := filepath.Join(t.TempDir(), "P1-1.csv")
	eng := engine.New(design)
	if err := eng.StartSession(context.Background(), path); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		_ = eng.EndSession(context.Background())
	})
	world := sim.NewWorld(design, 1, 2)
	m := NewModel(eng, world, design, testTick)
	m.started = time.Unix(0, 0)
	return m, eng, path
}

func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModelLogsDockedRelease(t *testing.T) {
	m, eng, path := newTestModel(t)
	now := m.started
	next := func() {
		now = now.Add(testTick)
		m.Update(tickMsg(now))
	}

	next()
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.world.Grabbing {
		t.Fatalf("enter should grab the object")
	}
	next()
	for i := 0; i < 4; i++ {
		press(m, runeKey('L'))
		next()
	}
	if !m.last.Docked {
		t.Fatalf("expected object docked at %v (target %v)", m.world.Position, m.world.Target)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	next()

	if eng.Completed() != 1 {
		t.Fatalf("expected one completed trial, got %d", eng.Completed())
	}
	if err := eng.EndSession(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	records, err := trialog.ReadAll(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(records) != 1 || records[0].ElapsedTime <= 0 {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestModelMovesOnlyWhileHeld(t *testing.T) {
	m, _, _ := newTestModel(t)
	home := m.world.Position
	press(m, runeKey('l'))
	if m.world.Position != home {
		t.Fatalf("released object should not move")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	press(m, runeKey('l'))
	if m.world.Position <= home {
		t.Fatalf("held object should move right")
	}
}

func TestModelQuitEndsSession(t *testing.T) {
	m, eng, _ := newTestModel(t)
	cmd := press(m, runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if eng.Active() {
		t.Fatalf("quit should end the session")
	}
	if m.EndErr() != nil {
		t.Fatalf("unexpected end error: %v", m.EndErr())
	}
}

func TestViewShowsIntroAndProgress(t *testing.T) {
	m, _, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{engine.StatusIntro, "Progress 0/90"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

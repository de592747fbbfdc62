package sequencer

import (
	"math"
	"testing"

	"github.com/verte-zerg/fitts/internal/model"
)

// succeed runs one docked grab at the current target.
func succeed(t *testing.T, s *Sequencer) model.TrialRecord {
	t.Helper()
	cfg := s.NextTargetConfiguration()
	s.OnGrabStart(s.Design().Start, 1)
	rec, ok := s.OnGrabEnd(cfg.Position, cfg.Position, 2, cfg.Width, cfg.Distance)
	if !ok {
		t.Fatalf("expected a record at counters %+v", s.Counters())
	}
	return rec
}

func TestNewStartsAtFirstTrial(t *testing.T) {
	s := New(model.DefaultDesign())
	if s.State() != Running {
		t.Fatalf("expected running, got %v", s.State())
	}
	if got := s.Counters(); got != (Counters{1, 1, 1}) {
		t.Fatalf("unexpected counters %+v", got)
	}
	if s.Total() != 90 {
		t.Fatalf("expected 90 trials, got %d", s.Total())
	}
}

func TestAdvanceIncrementsInnermostUnsaturated(t *testing.T) {
	design := model.DefaultDesign()
	s := New(design)
	for i := 0; i < s.Total()-1; i++ {
		before := s.Counters()
		succeed(t, s)
		after := s.Counters()

		switch {
		case before.Repetition < design.Repetitions:
			want := Counters{before.WidthLevel, before.DistanceLevel, before.Repetition + 1}
			if after != want {
				t.Fatalf("trial %d: got %+v, want %+v", i, after, want)
			}
		case before.DistanceLevel < design.DistanceLevels():
			want := Counters{before.WidthLevel, before.DistanceLevel + 1, 1}
			if after != want {
				t.Fatalf("trial %d: got %+v, want %+v", i, after, want)
			}
		default:
			want := Counters{before.WidthLevel + 1, 1, 1}
			if after != want {
				t.Fatalf("trial %d: got %+v, want %+v", i, after, want)
			}
		}
		if s.State() != Running {
			t.Fatalf("trial %d: completed early", i)
		}
	}
}

func TestCompletesAfterNinetyTrialsAndStays(t *testing.T) {
	s := New(model.DefaultDesign())
	for i := 0; i < 90; i++ {
		succeed(t, s)
	}
	if s.State() != Complete {
		t.Fatalf("expected complete after 90 trials, got %v", s.State())
	}
	last := s.NextTargetConfiguration()
	counters := s.Counters()

	for i := 0; i < 5; i++ {
		s.OnGrabStart(0, 10)
		if _, ok := s.OnGrabEnd(last.Position, last.Position, 11, last.Width, last.Distance); ok {
			t.Fatalf("expected no record once complete")
		}
	}
	if s.State() != Complete || s.Counters() != counters {
		t.Fatalf("terminal state changed: %v %+v", s.State(), s.Counters())
	}
	if got := s.NextTargetConfiguration(); got != last {
		t.Fatalf("configuration changed after completion: %+v vs %+v", got, last)
	}
	if s.Completed() != 90 {
		t.Fatalf("expected 90 completed, got %d", s.Completed())
	}
}

func TestMissLeavesCountersUnchanged(t *testing.T) {
	s := New(model.DefaultDesign())
	succeed(t, s)
	before := s.Counters()
	cfg := s.NextTargetConfiguration()

	s.OnGrabStart(-0.2, 3)
	if _, ok := s.OnGrabEnd(cfg.Position+cfg.Width, cfg.Position, 4, cfg.Width, cfg.Distance); ok {
		t.Fatalf("expected miss to yield no record")
	}
	if s.Counters() != before {
		t.Fatalf("counters moved on miss: %+v -> %+v", before, s.Counters())
	}
	if s.Completed() != 1 {
		t.Fatalf("expected 1 completed, got %d", s.Completed())
	}
}

func TestElapsedTime(t *testing.T) {
	s := New(model.DefaultDesign())
	cfg := s.NextTargetConfiguration()
	s.OnGrabStart(-0.2, 2.0)
	rec, ok := s.OnGrabEnd(cfg.Position, cfg.Position, 3.5, cfg.Width, cfg.Distance)
	if !ok {
		t.Fatalf("expected record")
	}
	if rec.ElapsedTime != 1.5 {
		t.Fatalf("expected elapsed 1.5, got %v", rec.ElapsedTime)
	}
	if rec.Width != cfg.Width || rec.Distance != cfg.Distance {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestGrabEndWithoutStartIsIgnored(t *testing.T) {
	s := New(model.DefaultDesign())
	cfg := s.NextTargetConfiguration()
	if _, ok := s.OnGrabEnd(cfg.Position, cfg.Position, 1, cfg.Width, cfg.Distance); ok {
		t.Fatalf("expected no record without a grab start")
	}
}

func TestNextTargetConfiguration(t *testing.T) {
	s := New(model.DefaultDesign())
	cfg := s.NextTargetConfiguration()
	if cfg.Position != 0.2 || !approx(cfg.Distance, 0.4) || cfg.Width != 0.05 {
		t.Fatalf("unexpected first configuration %+v", cfg)
	}

	for i := 0; i < 10; i++ {
		succeed(t, s)
	}
	cfg = s.NextTargetConfiguration()
	if cfg.DistanceLevel != 2 || cfg.Position != 0.1 || !approx(cfg.Distance, 0.3) {
		t.Fatalf("unexpected second distance block %+v", cfg)
	}

	for i := 0; i < 20; i++ {
		succeed(t, s)
	}
	cfg = s.NextTargetConfiguration()
	if cfg.WidthLevel != 2 || cfg.DistanceLevel != 1 || !approx(cfg.Width, 0.07) {
		t.Fatalf("unexpected second width block %+v", cfg)
	}
}

func TestResetRestartsDesign(t *testing.T) {
	s := New(model.DefaultDesign())
	for i := 0; i < 12; i++ {
		succeed(t, s)
	}
	s.Reset()
	if s.Counters() != (Counters{1, 1, 1}) || s.Completed() != 0 || s.State() != Running {
		t.Fatalf("reset did not restore initial state")
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

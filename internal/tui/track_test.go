package tui

import (
	"testing"

	"github.com/verte-zerg/fitts/internal/model"
)

func TestSpanColumnClamps(t *testing.T) {
	s := span{lo: 0, hi: 1}
	tests := []struct {
		x    float64
		want int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{-2, 0},
		{3, 10},
	}
	for _, tt := range tests {
		if got := s.column(tt.x, 11); got != tt.want {
			t.Errorf("column(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
	if got := (span{lo: 1, hi: 1}).column(0.5, 11); got != 0 {
		t.Fatalf("degenerate span should map to column 0, got %d", got)
	}
}

func TestRenderRowMarksCoveredCells(t *testing.T) {
	s := span{lo: 0, hi: 1}
	from, to := s.cells(0.5, 0.2, 11)
	if from != 4 || to != 6 {
		t.Fatalf("expected cells 4..6, got %d..%d", from, to)
	}
	if got := renderRow(from, to, 11, "#"); got != "    ###    " {
		t.Fatalf("unexpected row %q", got)
	}
	if got := renderRail(2, 5); got != "──┴──" {
		t.Fatalf("unexpected rail %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("zero width should not truncate: %q", got)
	}
}

func TestSceneSpanCoversDesign(t *testing.T) {
	design := model.DefaultDesign()
	s := sceneSpan(design)
	if s.lo >= design.Start || s.hi <= design.Targets[0] {
		t.Fatalf("span %+v does not cover start and targets", s)
	}
}

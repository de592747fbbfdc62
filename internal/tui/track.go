package tui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	objectCell = "▓"
	targetCell = "█"
	emptyCell  = " "
	railCell   = "─"
	homeCell   = "┴"
)

// span is the visible stretch of the 1-D scene.
type span struct {
	lo float64
	hi float64
}

func (s span) column(x float64, cols int) int {
	if cols <= 1 || s.hi <= s.lo {
		return 0
	}
	c := int(math.Round((x - s.lo) / (s.hi - s.lo) * float64(cols-1)))
	if c < 0 {
		return 0
	}
	if c >= cols {
		return cols - 1
	}
	return c
}

// cells marks the columns covered by an object of width centred on pos.
func (s span) cells(pos, width float64, cols int) (int, int) {
	from := s.column(pos-width/2, cols)
	to := s.column(pos+width/2, cols)
	if to < from {
		from, to = to, from
	}
	return from, to
}

func renderRow(from, to, cols int, cell string) string {
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c >= from && c <= to {
			b.WriteString(cell)
			continue
		}
		b.WriteString(emptyCell)
	}
	return b.String()
}

func renderRail(home, cols int) string {
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c == home {
			b.WriteString(homeCell)
			continue
		}
		b.WriteString(railCell)
	}
	return b.String()
}

// truncate cuts s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

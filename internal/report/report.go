// Package report renders catalogue contents for the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/trialog"
)

const listTimeLayout = "2006-01-02 15:04:05"

// RenderSessions prints one row per catalogued session.
func RenderSessions(w io.Writer, sessions []model.SessionSummary) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	headers := []string{"ID", "Participant", "Started", "Ended", "Trials", "Status"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.Participant,
			s.StartedAt.Local().Format(listTimeLayout),
			formatEnded(s.EndedAt),
			fmt.Sprintf("%d/%d", s.Trials, s.Planned),
			sessionStatus(s),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{4: true}))
}

func formatEnded(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(listTimeLayout)
}

func sessionStatus(s model.SessionSummary) string {
	switch {
	case s.Completed:
		return "complete"
	case s.EndedAt == nil:
		return "open"
	default:
		return "partial"
	}
}

// RenderTrials prints the trials of one session in log order.
func RenderTrials(w io.Writer, trials []model.TrialRow) error {
	if len(trials) == 0 {
		_, err := fmt.Fprintln(w, "No trials found.")
		return err
	}
	headers := []string{"#", "Width lvl", "Distance lvl", "Rep", "Elapsed (s)", "Width", "Distance"}
	rows := make([][]string, 0, len(trials))
	for _, tr := range trials {
		rows = append(rows, []string{
			strconv.Itoa(tr.Seq),
			strconv.Itoa(tr.WidthLevel),
			strconv.Itoa(tr.DistanceLevel),
			strconv.Itoa(tr.Repetition),
			fmt.Sprintf("%.3f", tr.Record.ElapsedTime),
			fmt.Sprintf("%.3f", tr.Record.Width),
			fmt.Sprintf("%.3f", tr.Record.Distance),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

// Export rewrites catalogued trials into a trial log at path.
func Export(path string, trials []model.TrialRow) (err error) {
	l, err := trialog.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for _, tr := range trials {
		if err := l.Append(tr.Record); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/fitts/internal/config"
	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/store"
	"github.com/verte-zerg/fitts/internal/trialog"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("FITTS_PARTICIPANT", "")
	t.Setenv("FITTS_DATA_DIR", "")
	t.Setenv("FITTS_LOG_LEVEL", "error")
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestResolveSettingsPrecedence(t *testing.T) {
	isolate(t)
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "[experiment]\nparticipant = \"FILE\"\ntolerance = 0.3\nrepetitions = 4\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FITTS_PARTICIPANT", "ENV")

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--tolerance", "0.25"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if settings.Participant != "ENV" {
		t.Fatalf("env should override file, got %q", settings.Participant)
	}
	if settings.Design.Tolerance != 0.25 {
		t.Fatalf("flag should override file, got %v", settings.Design.Tolerance)
	}
	if settings.Design.Repetitions != 4 {
		t.Fatalf("file should override default, got %d", settings.Design.Repetitions)
	}
}

func TestSimulateThenListAndExport(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "simulate", "--participant", "BOT", "--repetitions", "1", "--miss-every", "4")
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "complete: 9 trials") {
		t.Fatalf("unexpected simulate output:\n%s", out)
	}

	out, err = execute(t, "sessions", "--participant", "BOT")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	for _, want := range []string{"BOT", "9/9", "complete"} {
		if !strings.Contains(out, want) {
			t.Fatalf("sessions output missing %q:\n%s", want, out)
		}
	}

	dataDir := filepath.Join(home, "data", "fitts")
	st, err := store.Open(config.DBPath(dataDir))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sessions, err := st.ListSessions(context.Background(), model.SessionFilter{})
	if cerr := st.Close(); cerr != nil {
		t.Fatalf("close store: %v", cerr)
	}
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one session, got %d (%v)", len(sessions), err)
	}

	exported := filepath.Join(home, "export.csv")
	if _, err := execute(t, "export", sessions[0].ID, "--out", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := trialog.ReadAll(exported)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	original, err := trialog.ReadAll(sessions[0].LogPath)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if len(records) != 9 || len(original) != 9 {
		t.Fatalf("expected 9 records, got %d exported and %d logged", len(records), len(original))
	}
	for i := range records {
		if records[i] != original[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, records[i], original[i])
		}
	}

	out, err = execute(t, "trials", sessions[0].ID)
	if err != nil {
		t.Fatalf("trials: %v", err)
	}
	if !strings.Contains(out, "9/9 trials") {
		t.Fatalf("unexpected trials output:\n%s", out)
	}
}

func TestSimulateRejectsMissEveryOne(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "simulate", "--miss-every", "1"); err == nil {
		t.Fatalf("expected --miss-every 1 to be rejected")
	}
}

func TestUnknownSession(t *testing.T) {
	isolate(t)
	_, err := execute(t, "trials", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown session") {
		t.Fatalf("expected unknown session error, got %v", err)
	}
}

// Package config provides XDG path helpers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "fitts", "config.toml")
}

// DefaultDataDir returns the directory holding logs and the catalogue.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), "fitts")
}

// DBPath returns the SQLite catalogue path inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "fitts.db")
}

// SessionsDir returns the directory for per-session trial logs.
func SessionsDir(dataDir string) string {
	return filepath.Join(dataDir, "sessions")
}

// LogFilePath returns the diagnostic log used by the interactive host.
func LogFilePath(dataDir string) string {
	return filepath.Join(dataDir, "fitts.log")
}

// SessionLogPath names a trial log after the participant and the session start.
func SessionLogPath(dir, participant string, startedAt time.Time) string {
	name := sanitizeParticipant(participant)
	return filepath.Join(dir, fmt.Sprintf("%s-%d.csv", name, startedAt.UnixMilli()))
}

func sanitizeParticipant(participant string) string {
	participant = strings.TrimSpace(participant)
	if participant == "" {
		return "anonymous"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, participant)
}

// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/fitts/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Store wraps SQLite access for the session catalogue.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			log_path TEXT NOT NULL,
			planned INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS trials (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			elapsed REAL NOT NULL,
			width REAL NOT NULL,
			distance REAL NOT NULL,
			width_level INTEGER NOT NULL,
			distance_level INTEGER NOT NULL,
			repetition INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_participant ON sessions(participant);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginSession registers a new session.
func (s *Store) BeginSession(ctx context.Context, info model.SessionInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, participant, started_at, log_path, planned) VALUES (?, ?, ?, ?, ?)`,
		info.ID,
		info.Participant,
		formatTime(info.StartedAt),
		info.LogPath,
		info.Planned,
	)
	return err
}

// InsertTrial stores one successful trial.
func (s *Store) InsertTrial(ctx context.Context, sessionID string, row model.TrialRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trials (session_id, seq, elapsed, width, distance, width_level, distance_level, repetition, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		row.Seq,
		row.Record.ElapsedTime,
		row.Record.Width,
		row.Record.Distance,
		row.WidthLevel,
		row.DistanceLevel,
		row.Repetition,
		formatTime(row.RecordedAt),
	)
	return err
}

// FinishSession stamps the end time and completion flag.
func (s *Store) FinishSession(ctx context.Context, sessionID string, endedAt time.Time, completed bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, completed = ? WHERE id = ?`,
		formatTime(endedAt),
		completed,
		sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns session summaries ordered by start time.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.SessionSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Participant != "" {
		clauses = append(clauses, "s.participant = ?")
		args = append(args, filter.Participant)
	}
	if filter.Since != nil {
		clauses = append(clauses, "s.started_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	query := fmt.Sprintf(`SELECT s.id, s.participant, s.started_at, s.ended_at, s.log_path, s.planned, s.completed,
			(SELECT COUNT(*) FROM trials t WHERE t.session_id = s.id) AS trials
		FROM sessions s
		WHERE %s
		ORDER BY s.started_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionSummary
	for rows.Next() {
		summary, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// GetSession returns one session summary.
func (s *Store) GetSession(ctx context.Context, sessionID string) (model.SessionSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.participant, s.started_at, s.ended_at, s.log_path, s.planned, s.completed,
			(SELECT COUNT(*) FROM trials t WHERE t.session_id = s.id) AS trials
		FROM sessions s
		WHERE s.id = ?`, sessionID)
	summary, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionSummary{}, ErrSessionNotFound
	}
	return summary, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (model.SessionSummary, error) {
	var summary model.SessionSummary
	var startedAt string
	var endedAt sql.NullString
	if err := sc.Scan(&summary.ID, &summary.Participant, &startedAt, &endedAt, &summary.LogPath,
		&summary.Planned, &summary.Completed, &summary.Trials); err != nil {
		return model.SessionSummary{}, err
	}
	parsed, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return model.SessionSummary{}, err
	}
	summary.StartedAt = parsed
	if endedAt.Valid {
		ended, err := time.Parse(timeLayout, endedAt.String)
		if err != nil {
			return model.SessionSummary{}, err
		}
		summary.EndedAt = &ended
	}
	return summary, nil
}

// ListTrials returns a session's trials in the order they were logged.
func (s *Store) ListTrials(ctx context.Context, sessionID string) ([]model.TrialRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, elapsed, width, distance, width_level, distance_level, repetition, recorded_at
		FROM trials
		WHERE session_id = ?
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TrialRow
	for rows.Next() {
		var row model.TrialRow
		var recordedAt string
		if err := rows.Scan(&row.Seq, &row.Record.ElapsedTime, &row.Record.Width, &row.Record.Distance,
			&row.WidthLevel, &row.DistanceLevel, &row.Repetition, &recordedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, err
		}
		row.RecordedAt = parsed
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Package trialog writes the per-session CSV trial log.
package trialog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/verte-zerg/fitts/internal/model"
)

// Header is the first line of every trial log.
var Header = []string{"elapsedTime", "width", "distance"}

// ErrClosed is returned when appending to a closed log.
var ErrClosed = errors.New("trial log is closed")

// IOError reports a failure of the underlying sink.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("trial log %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Logger appends trial records to a CSV file, flushing every write.
type Logger struct {
	path  string
	file  *os.File
	w     *csv.Writer
	count int
}

// Open creates or truncates the log at path and writes the header.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	l := &Logger{path: path, file: file, w: csv.NewWriter(file)}
	if err := l.writeLine(Header); err != nil {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close on header failure.
			_ = cerr
		}
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return l, nil
}

// Reopen opens an existing log for appending without writing a header.
func Reopen(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &IOError{Op: "reopen", Path: path, Err: err}
	}
	return &Logger{path: path, file: file, w: csv.NewWriter(file)}, nil
}

// Path returns the log location.
func (l *Logger) Path() string {
	return l.path
}

// Count returns the number of records appended through this logger.
func (l *Logger) Count() int {
	return l.count
}

// Append writes one record and flushes it to disk.
func (l *Logger) Append(rec model.TrialRecord) error {
	if l == nil || l.file == nil {
		path := ""
		if l != nil {
			path = l.path
		}
		return &IOError{Op: "append", Path: path, Err: ErrClosed}
	}
	if err := l.writeLine(FormatRecord(rec)); err != nil {
		return &IOError{Op: "append", Path: l.path, Err: err}
	}
	l.count++
	return nil
}

// Close flushes and releases the file. Further calls are no-ops.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	l.w.Flush()
	werr := l.w.Error()
	cerr := file.Close()
	if werr != nil {
		return &IOError{Op: "close", Path: l.path, Err: werr}
	}
	if cerr != nil {
		return &IOError{Op: "close", Path: l.path, Err: cerr}
	}
	return nil
}

func (l *Logger) writeLine(fields []string) error {
	if err := l.w.Write(fields); err != nil {
		return err
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return err
	}
	return l.file.Sync()
}

// FormatRecord renders a record in log field order.
func FormatRecord(rec model.TrialRecord) []string {
	return []string{
		formatFloat(rec.ElapsedTime),
		formatFloat(rec.Width),
		formatFloat(rec.Distance),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadAll reads every record from the log at path.
func ReadAll(path string) ([]model.TrialRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only log.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read parses a trial log stream.
func Read(r io.Reader) ([]model.TrialRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("trial log is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header %v", header)
		}
	}

	var records []model.TrialRecord
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records)+1, err)
		}
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(fields []string) (model.TrialRecord, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return model.TrialRecord{}, err
		}
		values[i] = v
	}
	return model.TrialRecord{ElapsedTime: values[0], Width: values[1], Distance: values[2]}, nil
}

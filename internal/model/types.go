// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"

	"github.com/verte-zerg/fitts/internal/overlap"
)

// Design defaults.
const (
	DefaultWidthLevels  = 3
	DefaultRepetitions  = 10
	DefaultStart        = -0.2
	DefaultInitialWidth = 0.05
	DefaultWidthStep    = 0.02
	DefaultTolerance    = overlap.DefaultTolerance
)

// DefaultTargets returns the far, mid and near target positions.
func DefaultTargets() []float64 {
	return []float64{0.2, 0.1, 0.0}
}

// Design describes the factorial sweep and the scene geometry it drives.
type Design struct {
	WidthLevels  int
	Repetitions  int
	Start        float64
	Targets      []float64
	InitialWidth float64
	WidthStep    float64
	Tolerance    float64
}

// DefaultDesign returns the 3 widths x 3 distances x 10 repetitions design.
func DefaultDesign() Design {
	return Design{
		WidthLevels:  DefaultWidthLevels,
		Repetitions:  DefaultRepetitions,
		Start:        DefaultStart,
		Targets:      DefaultTargets(),
		InitialWidth: DefaultInitialWidth,
		WidthStep:    DefaultWidthStep,
		Tolerance:    DefaultTolerance,
	}
}

// DistanceLevels is the number of distance levels, one per target position.
func (d Design) DistanceLevels() int {
	return len(d.Targets)
}

// Trials is the number of successful trials that complete a session.
func (d Design) Trials() int {
	return d.WidthLevels * d.DistanceLevels() * d.Repetitions
}

// Validate checks that the design can be swept.
func (d Design) Validate() error {
	if d.WidthLevels < 1 {
		return fmt.Errorf("width levels must be >= 1")
	}
	if d.Repetitions < 1 {
		return fmt.Errorf("repetitions must be >= 1")
	}
	if len(d.Targets) == 0 {
		return fmt.Errorf("at least one target position is required")
	}
	if d.InitialWidth <= 0 {
		return fmt.Errorf("initial width must be > 0")
	}
	if d.WidthStep < 0 {
		return fmt.Errorf("width step must be >= 0")
	}
	if d.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be > 0")
	}
	return nil
}

// TrialRecord is one successful trial.
type TrialRecord struct {
	ElapsedTime float64
	Width       float64
	Distance    float64
}

// TargetConfiguration is what the scene should show for the current trial.
type TargetConfiguration struct {
	Width         float64
	Distance      float64
	Position      float64
	WidthLevel    int
	DistanceLevel int
	Repetition    int
}

// Settings holds resolved runtime settings.
type Settings struct {
	Participant string
	Design      Design
	DataDir     string
	LogLevel    string
	TickRate    time.Duration
	MoveSpeed   float64
	ReturnSpeed float64
}

// SessionInfo describes a session when it is opened.
type SessionInfo struct {
	ID          string
	Participant string
	StartedAt   time.Time
	LogPath     string
	Planned     int
}

// TrialRow is a catalogued trial.
type TrialRow struct {
	Seq           int
	Record        TrialRecord
	WidthLevel    int
	DistanceLevel int
	Repetition    int
	RecordedAt    time.Time
}

// SessionSummary summarizes a catalogued session.
type SessionSummary struct {
	ID          string
	Participant string
	StartedAt   time.Time
	EndedAt     *time.Time
	LogPath     string
	Planned     int
	Trials      int
	Completed   bool
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	Participant string
	Since       *time.Time
	Last        int
}

// Package sequencer runs the width x distance x repetition trial design.
package sequencer

import (
	"math"

	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/overlap"
)

// State is the sequencer's lifecycle state.
type State int

const (
	Running State = iota
	Complete
)

func (s State) String() string {
	if s == Complete {
		return "complete"
	}
	return "running"
}

// Counters are the 1-based design levels of the current trial.
type Counters struct {
	WidthLevel    int
	DistanceLevel int
	Repetition    int
}

// Sequencer owns the design counters and the baseline of the current grab.
type Sequencer struct {
	design   model.Design
	state    State
	counters Counters
	done     int

	grabbing    bool
	initialPos  float64
	initialTime float64
}

// New returns a running sequencer at the first trial. The design is assumed valid.
func New(design model.Design) *Sequencer {
	s := &Sequencer{design: design}
	s.Reset()
	return s
}

// Reset returns to the first trial.
func (s *Sequencer) Reset() {
	s.state = Running
	s.counters = Counters{WidthLevel: 1, DistanceLevel: 1, Repetition: 1}
	s.done = 0
	s.grabbing = false
	s.initialPos = 0
	s.initialTime = 0
}

// Design returns the design being swept.
func (s *Sequencer) Design() model.Design {
	return s.design
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// Counters returns the current counters.
func (s *Sequencer) Counters() Counters {
	return s.counters
}

// Completed returns the number of successful trials so far.
func (s *Sequencer) Completed() int {
	return s.done
}

// Total returns the number of successful trials in the design.
func (s *Sequencer) Total() int {
	return s.design.Trials()
}

// InitialPosition returns where the current grab started.
func (s *Sequencer) InitialPosition() float64 {
	return s.initialPos
}

// Docked applies the design tolerance. Feedback and the success test both use it.
func (s *Sequencer) Docked(moving, target, width float64) bool {
	return overlap.IsDocked(moving, target, width, s.design.Tolerance)
}

// OnGrabStart records the trial baseline.
func (s *Sequencer) OnGrabStart(position, t float64) {
	s.grabbing = true
	s.initialPos = position
	s.initialTime = t
}

// OnGrabEnd evaluates the release. A miss yields no record and the same trial
// is presented again.
func (s *Sequencer) OnGrabEnd(position, target, t, width, distance float64) (model.TrialRecord, bool) {
	if s.state == Complete || !s.grabbing {
		return model.TrialRecord{}, false
	}
	s.grabbing = false
	if !s.Docked(position, target, width) {
		return model.TrialRecord{}, false
	}
	rec := model.TrialRecord{
		ElapsedTime: t - s.initialTime,
		Width:       width,
		Distance:    distance,
	}
	s.done++
	s.advance()
	return rec, true
}

// advance increments the innermost counter that has room, resetting the ones inside it.
func (s *Sequencer) advance() {
	c := &s.counters
	switch {
	case c.Repetition < s.design.Repetitions:
		c.Repetition++
	case c.DistanceLevel < s.design.DistanceLevels():
		c.Repetition = 1
		c.DistanceLevel++
	case c.WidthLevel < s.design.WidthLevels:
		c.Repetition = 1
		c.DistanceLevel = 1
		c.WidthLevel++
	default:
		s.state = Complete
	}
}

// NextTargetConfiguration derives the scene for the current counters. Once the
// design is complete the counters no longer move, so the last configuration repeats.
func (s *Sequencer) NextTargetConfiguration() model.TargetConfiguration {
	c := s.counters
	pos := s.design.Targets[c.DistanceLevel-1]
	return model.TargetConfiguration{
		Width:         s.design.InitialWidth + float64(c.WidthLevel-1)*s.design.WidthStep,
		Distance:      math.Abs(s.design.Start - pos),
		Position:      pos,
		WidthLevel:    c.WidthLevel,
		DistanceLevel: c.DistanceLevel,
		Repetition:    c.Repetition,
	}
}

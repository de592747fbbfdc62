// Package engine composes grab detection, the trial sequencer and the trial
// log into the per-tick experiment loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/fitts/internal/grab"
	"github.com/verte-zerg/fitts/internal/logging"
	"github.com/verte-zerg/fitts/internal/model"
	"github.com/verte-zerg/fitts/internal/sequencer"
	"github.com/verte-zerg/fitts/internal/trialog"
)

// Status messages shown outside a running trial.
const (
	StatusIntro    = "Grab the cube and move it to the target cube."
	StatusComplete = "You have finished the experiment. Thank you!"
)

var (
	// ErrSessionActive is returned when starting a session twice.
	ErrSessionActive = errors.New("session already active")
	// ErrNoSession is returned when pausing or resuming without a session.
	ErrNoSession = errors.New("no active session")
)

// TrialStore mirrors sessions and trials into a catalogue.
type TrialStore interface {
	BeginSession(ctx context.Context, info model.SessionInfo) error
	InsertTrial(ctx context.Context, sessionID string, row model.TrialRow) error
	FinishSession(ctx context.Context, sessionID string, endedAt time.Time, completed bool) error
}

// Input is what the host observes on one tick. Time is in seconds.
type Input struct {
	Time           float64
	MovingPosition float64
	MovingWidth    float64
	TargetPosition float64
	Grabbing       bool
}

// Output is what the host should render after a tick.
type Output struct {
	Target   model.TargetConfiguration
	Docked   bool
	Status   string
	Trial    int
	Total    int
	Counters sequencer.Counters
	Complete bool
	Edge     grab.Edge
	Record   *model.TrialRecord
	// Warning is set when a record could not be persisted. The session goes on.
	Warning error
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore mirrors every logged trial into st.
func WithStore(st TrialStore) Option {
	return func(e *Engine) {
		e.store = st
	}
}

// WithParticipant sets the participant recorded in the catalogue.
func WithParticipant(participant string) Option {
	return func(e *Engine) {
		e.participant = participant
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the wall clock used for catalogue timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithWarningHandler is called for every persistence failure.
func WithWarningHandler(fn func(error)) Option {
	return func(e *Engine) {
		e.onWarning = fn
	}
}

// Engine runs one session at a time. It is not safe for concurrent use.
type Engine struct {
	design    model.Design
	seq       *sequencer.Sequencer
	det       grab.Detector
	log       *trialog.Logger
	store     TrialStore
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	onWarning func(error)

	participant string
	sessionID   string
	logPath     string
	active      bool
	paused      bool
	grabbed     bool
}

// New builds an engine for the design. The design is assumed valid.
func New(design model.Design, opts ...Option) *Engine {
	e := &Engine{
		design: design,
		seq:    sequencer.New(design),
		logger: logging.Discard(),
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession opens the trial log at destination and resets the design.
// Failing to open the log is fatal to the session.
func (e *Engine) StartSession(ctx context.Context, destination string) error {
	if e.active {
		return ErrSessionActive
	}
	l, err := trialog.Open(destination)
	if err != nil {
		return err
	}
	e.log = l
	e.logPath = destination
	e.seq.Reset()
	e.det.Reset()
	e.sessionID = e.newID()
	e.active = true
	e.paused = false
	e.grabbed = false

	if e.store != nil {
		info := model.SessionInfo{
			ID:          e.sessionID,
			Participant: e.participant,
			StartedAt:   e.now(),
			LogPath:     destination,
			Planned:     e.seq.Total(),
		}
		if err := e.store.BeginSession(ctx, info); err != nil {
			e.warn(fmt.Errorf("failed to register session: %w", err))
		}
	}
	e.logger.Info("session started", "session", e.sessionID, "participant", e.participant, "log", destination, "trials", e.seq.Total())
	return nil
}

// Tick advances the engine by one host step.
func (e *Engine) Tick(ctx context.Context, in Input) Output {
	out := Output{Edge: grab.None}
	if e.seq.State() != sequencer.Complete {
		out.Edge = e.det.Detect(in.Grabbing)
		switch out.Edge {
		case grab.Start:
			e.grabbed = true
			e.seq.OnGrabStart(in.MovingPosition, in.Time)
			e.logger.Log(ctx, logging.LevelTrace, "grab start", "t", in.Time, "position", in.MovingPosition)
		case grab.End:
			out.Record, out.Warning = e.release(ctx, in)
		}
	}

	out.Target = e.seq.NextTargetConfiguration()
	out.Docked = e.seq.Docked(in.MovingPosition, in.TargetPosition, in.MovingWidth)
	out.Counters = e.seq.Counters()
	out.Complete = e.seq.State() == sequencer.Complete
	out.Total = e.seq.Total()
	out.Trial = e.seq.Completed() + 1
	if out.Trial > out.Total {
		out.Trial = out.Total
	}
	out.Status = e.status(out)
	return out
}

func (e *Engine) release(ctx context.Context, in Input) (*model.TrialRecord, error) {
	levels := e.seq.Counters()
	distance := math.Abs(e.design.Start - in.TargetPosition)
	rec, ok := e.seq.OnGrabEnd(in.MovingPosition, in.TargetPosition, in.Time, in.MovingWidth, distance)
	if !ok {
		e.logger.Debug("release missed target", "t", in.Time, "position", in.MovingPosition, "target", in.TargetPosition)
		return nil, nil
	}
	e.logger.Debug("trial logged", "seq", e.seq.Completed(), "elapsed", rec.ElapsedTime, "width", rec.Width, "distance", rec.Distance)

	var errs []error
	if err := e.log.Append(rec); err != nil {
		errs = append(errs, err)
	}
	if e.store != nil && e.active {
		row := model.TrialRow{
			Seq:           e.seq.Completed(),
			Record:        rec,
			WidthLevel:    levels.WidthLevel,
			DistanceLevel: levels.DistanceLevel,
			Repetition:    levels.Repetition,
			RecordedAt:    e.now(),
		}
		if err := e.store.InsertTrial(ctx, e.sessionID, row); err != nil {
			errs = append(errs, fmt.Errorf("failed to catalogue trial: %w", err))
		}
	}
	if e.seq.State() == sequencer.Complete {
		e.logger.Info("design complete", "session", e.sessionID, "trials", e.seq.Completed())
	}

	err := errors.Join(errs...)
	if err != nil {
		e.warn(err)
	}
	return &rec, err
}

func (e *Engine) status(out Output) string {
	switch {
	case out.Complete:
		return StatusComplete
	case !e.grabbed:
		return StatusIntro
	default:
		return fmt.Sprintf("trial %d/%d (repetition %d/%d)\ndistance %.2f\nwidth %.2f",
			out.Trial, out.Total, out.Counters.Repetition, e.design.Repetitions,
			out.Target.Distance, out.Target.Width)
	}
}

func (e *Engine) warn(err error) {
	e.logger.Warn("persistence degraded", "session", e.sessionID, "err", err)
	if e.onWarning != nil {
		e.onWarning(err)
	}
}

// Pause closes the trial log so nothing is lost while the host is suspended.
func (e *Engine) Pause(_ context.Context) error {
	if !e.active {
		return ErrNoSession
	}
	if e.paused {
		return nil
	}
	e.paused = true
	e.logger.Info("session paused", "session", e.sessionID)
	return e.log.Close()
}

// Resume reopens the trial log for appending.
func (e *Engine) Resume(_ context.Context) error {
	if !e.active {
		return ErrNoSession
	}
	if !e.paused {
		return nil
	}
	l, err := trialog.Reopen(e.logPath)
	if err != nil {
		return err
	}
	e.log = l
	e.paused = false
	e.logger.Info("session resumed", "session", e.sessionID)
	return nil
}

// EndSession closes the trial log and stamps the catalogue. It is safe to call
// on every exit path; calls after the first do nothing.
func (e *Engine) EndSession(ctx context.Context) error {
	if !e.active {
		return nil
	}
	e.active = false
	e.paused = false
	var errs []error
	if err := e.log.Close(); err != nil {
		errs = append(errs, err)
	}
	completed := e.seq.State() == sequencer.Complete
	if e.store != nil {
		if err := e.store.FinishSession(ctx, e.sessionID, e.now(), completed); err != nil {
			errs = append(errs, fmt.Errorf("failed to finish session: %w", err))
		}
	}
	e.logger.Info("session ended", "session", e.sessionID, "trials", e.seq.Completed(), "completed", completed)
	return errors.Join(errs...)
}

// Active reports whether a session is open.
func (e *Engine) Active() bool {
	return e.active
}

// SessionID returns the id of the current or last session.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// LogPath returns the trial log of the current or last session.
func (e *Engine) LogPath() string {
	return e.logPath
}

// Completed returns the number of successful trials in the session.
func (e *Engine) Completed() int {
	return e.seq.Completed()
}

// Total returns the number of successful trials in the design.
func (e *Engine) Total() int {
	return e.seq.Total()
}

// Complete reports whether the design has been swept.
func (e *Engine) Complete() bool {
	return e.seq.State() == sequencer.Complete
}

// Target returns the configuration the scene should show.
func (e *Engine) Target() model.TargetConfiguration {
	return e.seq.NextTargetConfiguration()
}

package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/fitts/internal/engine"
)

type phase int

const (
	phaseIdle phase = iota
	phaseCarry
	phaseRelease
	phaseReturn
)

// Autopilot plays the participant: grab at home, carry, release, wait for the
// object to return. With MissEvery >= 2 every Nth release lands beside the target.
type Autopilot struct {
	MissEvery  int
	MissOffset float64

	phase    phase
	attempts int
	aim      float64
}

// Act decides this tick's grab signal and carries the object.
func (a *Autopilot) Act(w *World, dt float64) {
	switch a.phase {
	case phaseIdle:
		if !w.AtHome() {
			return
		}
		a.attempts++
		a.aim = w.Target
		if a.missing() {
			offset := a.MissOffset
			if offset <= 0 {
				offset = 2
			}
			a.aim = w.Target + offset*w.Width
		}
		w.Grabbing = true
		a.phase = phaseCarry
	case phaseCarry:
		w.Position = MoveTowards(w.Position, a.aim, w.MoveSpeed*dt)
		if w.Position == a.aim {
			a.phase = phaseRelease
		}
	case phaseRelease:
		w.Grabbing = false
		a.phase = phaseReturn
	case phaseReturn:
		if w.AtHome() {
			a.phase = phaseIdle
		}
	}
}

func (a *Autopilot) missing() bool {
	return a.MissEvery >= 2 && a.attempts%a.MissEvery == 0
}

// Attempts returns the number of grabs made so far.
func (a *Autopilot) Attempts() int {
	return a.attempts
}

// Result summarizes an autopilot run.
type Result struct {
	Ticks    int
	Attempts int
	Trials   int
	Warnings int
	Elapsed  time.Duration
	Complete bool
}

// Run drives eng from w until the design completes, ctx is cancelled or
// maxTicks pass. The caller owns the session lifecycle.
func Run(ctx context.Context, eng *engine.Engine, w *World, a *Autopilot, dt time.Duration, maxTicks int) (Result, error) {
	var res Result
	step := dt.Seconds()
	if step <= 0 {
		return res, fmt.Errorf("tick interval must be > 0")
	}
	w.Apply(eng.Target())
	now := 0.0
	for res.Ticks < maxTicks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a.Act(w, step)
		out := eng.Tick(ctx, w.Input(now))
		w.Apply(out.Target)
		w.Step(step)

		res.Ticks++
		if out.Record != nil {
			res.Trials++
		}
		if out.Warning != nil {
			res.Warnings++
		}
		now += step
		if out.Complete {
			res.Complete = true
			break
		}
	}
	res.Attempts = a.Attempts()
	res.Elapsed = time.Duration(now * float64(time.Second))
	if !res.Complete {
		return res, fmt.Errorf("design not complete after %d ticks", res.Ticks)
	}
	return res, nil
}

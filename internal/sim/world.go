// Package sim models the one-dimensional scene the engine is driven from.
package sim

import (
	"math"

	"github.com/verte-zerg/fitts/internal/engine"
	"github.com/verte-zerg/fitts/internal/model"
)

// World is the movable object, the target and the grab signal.
type World struct {
	Home        float64
	Position    float64
	Width       float64
	Target      float64
	Grabbing    bool
	MoveSpeed   float64
	ReturnSpeed float64
}

// NewWorld places the object at home and the target at the first distance.
func NewWorld(design model.Design, moveSpeed, returnSpeed float64) *World {
	return &World{
		Home:        design.Start,
		Position:    design.Start,
		Width:       design.InitialWidth,
		Target:      design.Targets[0],
		MoveSpeed:   moveSpeed,
		ReturnSpeed: returnSpeed,
	}
}

// Apply moves the target and resizes both objects.
func (w *World) Apply(cfg model.TargetConfiguration) {
	w.Target = cfg.Position
	w.Width = cfg.Width
}

// Nudge carries the object by dir*MoveSpeed*dt while it is held.
func (w *World) Nudge(dir, dt float64) {
	if !w.Grabbing {
		return
	}
	w.Position += dir * w.MoveSpeed * dt
}

// Step slides a released object back towards home.
func (w *World) Step(dt float64) {
	if w.Grabbing || w.Position == w.Home {
		return
	}
	w.Position = MoveTowards(w.Position, w.Home, w.ReturnSpeed*dt)
}

// AtHome reports whether the object rests at its home position.
func (w *World) AtHome() bool {
	return w.Position == w.Home
}

// Input samples the world for an engine tick at time t.
func (w *World) Input(t float64) engine.Input {
	return engine.Input{
		Time:           t,
		MovingPosition: w.Position,
		MovingWidth:    w.Width,
		TargetPosition: w.Target,
		Grabbing:       w.Grabbing,
	}
}

// MoveTowards moves current towards target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

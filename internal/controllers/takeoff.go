// Package controllers provides elevator laws for the reference takeoff.
package controllers

import (
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/sim"
)

// Takeoff flies a rotation schedule on the runway, holds pitch rate while
// rotating about the main gear and holds pitch attitude after liftoff.
// Every handover is bumpless.
type Takeoff struct {
	Ground   sim.Controller
	Rotation *PID
	Climb    *PID
}

func NewTakeoff(ground sim.Controller, rotation, climb *PID) *Takeoff {
	return &Takeoff{Ground: ground, Rotation: rotation, Climb: climb}
}

func (c *Takeoff) law(k phase.Kind) sim.Controller {
	switch k {
	case phase.Rotation:
		return c.Rotation
	case phase.Transition:
		return c.Climb
	}
	return c.Ground
}

func (c *Takeoff) Compute(s *sim.Snapshot) float64 {
	return c.law(s.Phase).Compute(s)
}

func (c *Takeoff) Advance(s *sim.Snapshot, u float64) {
	active := c.law(s.Phase)
	active.Advance(s, u)
	for _, p := range []*PID{c.Rotation, c.Climb} {
		if sim.Controller(p) != active {
			p.Track(s, u)
		}
	}
}

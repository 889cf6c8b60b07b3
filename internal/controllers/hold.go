package controllers

import "github.com/san-kum/takeoff/internal/sim"

// Hold commands a constant deflection.
type Hold struct {
	De float64
}

func NewHold(de float64) *Hold {
	return &Hold{De: de}
}

func (h *Hold) Compute(s *sim.Snapshot) float64 { return h.De }

func (h *Hold) Advance(s *sim.Snapshot, u float64) {}

package controllers

import (
	"math"

	"github.com/san-kum/takeoff/internal/sim"
)

// RotationSchedule holds the elevator until the airspeed reaches VR, then
// ramps it at Rate to Deflection.
type RotationSchedule struct {
	VR         float64 // m/s
	Hold       float64 // rad
	Deflection float64 // rad
	Rate       float64 // rad/s

	tr      float64
	reached bool
}

func NewRotationSchedule(vr, deflection, rate float64) *RotationSchedule {
	return &RotationSchedule{VR: vr, Deflection: deflection, Rate: rate}
}

// Compute is zero until VR is seen; the ramp then starts from the first
// committed node at or above VR.
func (r *RotationSchedule) Compute(s *sim.Snapshot) float64 {
	start := s.T
	switch {
	case r.reached:
		start = r.tr
	case s.Airspeed() < r.VR:
		return r.Hold
	}
	span := r.Deflection - r.Hold
	done := r.Rate * (s.T - start)
	if done >= math.Abs(span) {
		return r.Deflection
	}
	return r.Hold + math.Copysign(done, span)
}

func (r *RotationSchedule) Advance(s *sim.Snapshot, u float64) {
	if !r.reached && s.Airspeed() >= r.VR {
		r.reached = true
		r.tr = s.T
	}
}

// Rotating reports whether VR has been reached.
func (r *RotationSchedule) Rotating() bool { return r.reached }

func (r *RotationSchedule) Reset() { r.reached = false }

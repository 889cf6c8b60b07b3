package metrics

import (
	"math"

	"github.com/san-kum/takeoff/internal/sim"
)

// FuelBurned is the mass lost between the first and the last node, kg.
type FuelBurned struct {
	initial, current float64
	seen             bool
}

func NewFuelBurned() *FuelBurned { return &FuelBurned{} }

func (f *FuelBurned) Name() string { return "fuel_burned" }

func (f *FuelBurned) Observe(s *sim.Snapshot) {
	m, ok := s.Values["mass"]
	if !ok {
		return
	}
	if !f.seen {
		f.initial = m
		f.seen = true
	}
	f.current = m
}

func (f *FuelBurned) Value() float64 { return f.initial - f.current }

func (f *FuelBurned) Reset() { *f = FuelBurned{} }

// PeakPitchRate is the largest |q| seen, rad/s.
type PeakPitchRate struct {
	peak float64
}

func NewPeakPitchRate() *PeakPitchRate { return &PeakPitchRate{} }

func (p *PeakPitchRate) Name() string { return "peak_pitch_rate" }

func (p *PeakPitchRate) Observe(s *sim.Snapshot) {
	if q, ok := s.Values["q"]; ok {
		p.peak = math.Max(p.peak, math.Abs(q))
	}
}

func (p *PeakPitchRate) Value() float64 { return p.peak }

func (p *PeakPitchRate) Reset() { p.peak = 0 }

// Standard returns the metrics recorded on every run.
func Standard(alphaMax float64) []sim.Metric {
	return []sim.Metric{NewFuelBurned(), NewPeakPitchRate(), NewControlEffort(), NewAlphaMargin(alphaMax)}
}

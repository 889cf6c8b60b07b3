package controllers

import (
	"math"

	"github.com/san-kum/takeoff/internal/sim"
)

// PID holds Measure at Target. With Rate set, the derivative term uses that
// measured rate instead of differencing the error.
//
// A PID that has tracked another law's commands takes over bumplessly: its
// first output equals the last tracked command and the difference to the raw
// law is kept as a constant offset. The output then slews at most MaxRate
// per second.
type PID struct {
	Kp      float64
	Ki      float64
	Kd      float64
	Target  float64
	Bias    float64
	Min     float64
	Max     float64
	MaxRate float64
	Measure string
	Rate    string

	integral float64
	prevErr  float64
	prevT    float64
	offset   float64
	first    bool

	last    float64
	lastT   float64
	hasLast bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:      kp,
		Ki:      ki,
		Kd:      kd,
		Target:  target,
		Min:     math.Inf(-1),
		Max:     math.Inf(1),
		Measure: "theta",
		first:   true,
	}
}

func (p *PID) terms(s *sim.Snapshot) (u, err, integral float64) {
	err = p.Target - s.Values[p.Measure]
	integral = p.integral
	deriv := 0.0
	if !p.first {
		if dt := s.T - p.prevT; dt > 0 {
			integral += err * dt
			deriv = (err - p.prevErr) / dt
		}
	}
	if p.Rate != "" {
		deriv = -s.Values[p.Rate]
	}
	return p.Bias + p.Kp*err + p.Ki*integral + p.Kd*deriv, err, integral
}

func (p *PID) Compute(s *sim.Snapshot) float64 {
	if p.first && p.hasLast {
		return p.last
	}
	u, _, _ := p.terms(s)
	return p.limit(u+p.offset, s.T)
}

func (p *PID) limit(u, t float64) float64 {
	if p.hasLast && p.MaxRate > 0 {
		step := p.MaxRate * math.Max(0, t-p.lastT)
		if d := u - p.last; math.Abs(d) > step {
			u = p.last + math.Copysign(step, d)
		}
	}
	return math.Max(p.Min, math.Min(p.Max, u))
}

// Advance commits the node. The integral is frozen while the command is
// limited.
func (p *PID) Advance(s *sim.Snapshot, u float64) {
	raw, err, integral := p.terms(s)
	switch {
	case p.first && p.hasLast:
		p.offset = u - raw
	case p.limit(raw+p.offset, s.T) == raw+p.offset:
		p.integral = integral
	}
	p.prevErr = err
	p.prevT = s.T
	p.first = false
	p.Track(s, u)
}

// Track records a command issued by another law.
func (p *PID) Track(s *sim.Snapshot, u float64) {
	p.last = u
	p.lastT = s.T
	p.hasLast = true
}

func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.offset = 0
	p.first = true
	p.hasLast = false
}

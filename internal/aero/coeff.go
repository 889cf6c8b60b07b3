// Package aero computes aerodynamic coefficients and the dimensional lift,
// drag and pitching moment they produce.
package aero

import (
	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

type Mode int

const (
	// GroundEffect applies while every wheel is on the runway. Coefficients
	// depend on alpha, elevator and flap only.
	GroundEffect Mode = iota
	// FreeAir adds the pitch-rate terms once the nose gear has lifted.
	FreeAir
)

func (m Mode) String() string {
	switch m {
	case GroundEffect:
		return "ground-effect"
	case FreeAir:
		return "free-air"
	default:
		return "unknown"
	}
}

// CoefficientModel supplies the lift and pitching-moment coefficient
// components for one operating mode.
type CoefficientModel interface {
	Mode() Mode
	Lift() dynamo.Differentiable
	Moment() dynamo.Differentiable
}

// NewCoefficientModel selects the model for the phase. Callers hold the
// interface only.
func NewCoefficientModel(ap *aircraft.Airplane, allWheelsOnGround bool) CoefficientModel {
	c := ap.Coeffs
	mode := FreeAir
	if allWheelsOnGround {
		mode = GroundEffect
	}
	return &linearModel{
		mode: mode,
		lift: newLinear("cl", "CL", mode, ap.Wing.MAC,
			derivs{c0: c.CL0, flap: c.CLFlap, alpha: c.CLAlpha, de: c.CLDe, q: c.CLq}),
		moment: newLinear("cm", "Cm", mode, ap.Wing.MAC,
			derivs{c0: c.Cm0, flap: c.CmFlap, alpha: c.CmAlpha, de: c.CmDe, q: c.Cmq}),
	}
}

type linearModel struct {
	mode   Mode
	lift   *linear
	moment *linear
}

func (m *linearModel) Mode() Mode                    { return m.mode }
func (m *linearModel) Lift() dynamo.Differentiable   { return m.lift }
func (m *linearModel) Moment() dynamo.Differentiable { return m.moment }

type derivs struct {
	c0, flap, alpha, de, q float64
}

// linear evaluates C = c0 + flap*df + alpha*a + de*de (+ q*qhat in free air)
// where qhat = q*c/(2*tas) is the non-dimensional pitch rate.
type linear struct {
	meta  dynamo.Meta
	out   string
	mode  Mode
	chord float64
	d     derivs
}

func newLinear(name, out string, mode Mode, chord float64, d derivs) *linear {
	l := &linear{meta: dynamo.Meta{Name: name}, out: out, mode: mode, chord: chord, d: d}
	l.meta.AddInput("alpha", "rad", "Angle of attack")
	l.meta.AddInput("de", "rad", "Elevator deflection")
	l.meta.AddScalarInput("flap_angle", "rad", "Flap deflection")
	wrt := []string{"alpha", "de", "flap_angle"}
	if mode == FreeAir {
		l.meta.AddInput("tas", "m/s", "True airspeed")
		l.meta.AddInput("q", "rad/s", "Pitch rate")
		wrt = append(wrt, "tas", "q")
	}
	l.meta.AddOutput(out, "", "")
	l.meta.Declare(out, wrt...)
	return l
}

func (l *linear) Meta() *dynamo.Meta { return &l.meta }

func (l *linear) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	alpha, de, flap := in["alpha"], in["de"], in["flap_angle"][0]
	c := out[l.out]
	for i := range c {
		c[i] = l.d.c0 + l.d.flap*flap + l.d.alpha*alpha.At(i) + l.d.de*de.At(i)
	}
	if l.mode == GroundEffect {
		return nil
	}
	tas, q := in["tas"], in["q"]
	for i := range c {
		v := tas.At(i)
		if v <= 0 {
			return dynamo.DomainError(l.meta.Name, i, "tas", v)
		}
		c[i] += l.d.q * q.At(i) * l.chord / (2 * v)
	}
	return nil
}

func (l *linear) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	dAlpha, dDe, dFlap := p.Get(l.out, "alpha"), p.Get(l.out, "de"), p.Get(l.out, "flap_angle")
	for i := range dAlpha {
		dAlpha[i] = l.d.alpha
		dDe[i] = l.d.de
		dFlap[i] = l.d.flap
	}
	if l.mode == GroundEffect {
		return nil
	}
	tas, q := in["tas"], in["q"]
	dTas, dQ := p.Get(l.out, "tas"), p.Get(l.out, "q")
	for i := range dTas {
		v := tas.At(i)
		if v <= 0 {
			return dynamo.DomainError(l.meta.Name, i, "tas", v)
		}
		dQ[i] = l.d.q * l.chord / (2 * v)
		dTas[i] = -l.d.q * q.At(i) * l.chord / (2 * v * v)
	}
	return nil
}

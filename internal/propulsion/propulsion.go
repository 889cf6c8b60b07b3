// Package propulsion models turbofan thrust lapse and fuel flow.
package propulsion

import (
	"fmt"
	"strings"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/atmosphere"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// Condition is the engine state for the takeoff.
type Condition int

const (
	AEO Condition = iota // all engines operating
	OEI                  // one engine inoperative
)

func (c Condition) String() string {
	if c == OEI {
		return "OEI"
	}
	return "AEO"
}

func ParseCondition(s string) (Condition, error) {
	switch strings.ToUpper(s) {
	case "", "AEO":
		return AEO, nil
	case "OEI":
		return OEI, nil
	}
	return AEO, fmt.Errorf("unknown takeoff condition %q (want AEO or OEI)", s)
}

// Model computes, per node,
//
//	thrust = n*T0*(p/p0)*(1 + k1*M + k2*M^2)
//	m_dot  = -TSFC*(1 + kc*M)*sqrt(theta)*thrust
//
// with M = tas/sos and theta = (sos/sos0)^2. It has no hand-derived
// partials; New wraps it in the finite-difference provider.
type Model struct {
	meta   dynamo.Meta
	active int
	eng    aircraft.Engine
}

func New(ap *aircraft.Airplane, cond Condition) (dynamo.Differentiable, error) {
	active := ap.Engine.Count
	if cond == OEI {
		active--
	}
	if active < 1 {
		return nil, &dynamo.ConfigError{Component: "prop", Reason: fmt.Sprintf("%s leaves no engine running", cond)}
	}
	m := &Model{meta: dynamo.Meta{Name: "prop"}, active: active, eng: ap.Engine}
	m.meta.AddInput("tas", "m/s", "True airspeed")
	m.meta.AddScalarInput("p_amb", "Pa", "Ambient pressure")
	m.meta.AddScalarInput("sos", "m/s", "Speed of sound")
	m.meta.AddOutput("thrust", "N", "Total thrust of the running engines")
	m.meta.AddOutput("m_dot", "kg/s", "Mass rate (negative fuel flow)")
	m.meta.Declare("thrust", "tas", "p_amb", "sos")
	m.meta.Declare("m_dot", "tas", "p_amb", "sos")
	return dynamo.WithFD(m), nil
}

func (m *Model) Meta() *dynamo.Meta { return &m.meta }

func (m *Model) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	tas, p, sos := in["tas"], in["p_amb"][0], in["sos"][0]
	if sos <= 0 {
		return dynamo.DomainError(m.meta.Name, -1, "sos", sos)
	}
	delta := p / atmosphere.P0
	sqrtTheta := sos / atmosphere.Sos0
	for i := range out["thrust"] {
		mach := tas.At(i) / sos
		t := float64(m.active) * m.eng.Thrust * delta * (1 + m.eng.K1*mach + m.eng.K2*mach*mach)
		out["thrust"][i] = t
		out["m_dot"][i] = -m.eng.TSFC * (1 + m.eng.KC*mach) * sqrtTheta * t
	}
	return nil
}

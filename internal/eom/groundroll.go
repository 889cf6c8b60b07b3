package eom

import (
	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// GroundRoll models the run with every wheel on the runway and the pitch
// attitude fixed. Besides the rates it reports the main gear reaction, the
// rolling resistance, and the nose gear reaction
//
//	f_ng = (x_mg*f_mg - M) / (x_mg + x_ng)
//
// from the moment balance about the CG. f_ng reaching zero ends the phase.
type GroundRoll struct {
	meta  dynamo.Meta
	xMain float64
	xNose float64
}

func NewGroundRoll(ap *aircraft.Airplane) *GroundRoll {
	e := &GroundRoll{
		meta:  dynamo.Meta{Name: "initial_run_eom"},
		xMain: ap.LandingGear.MainX,
		xNose: ap.LandingGear.NoseX,
	}
	addForceInputs(&e.meta)
	e.meta.AddInput("alpha", "rad", "Angle of attack")
	addRunwayInputs(&e.meta)

	e.meta.AddOutput("v_dot", "m/s**2", "Body x axis acceleration")
	e.meta.AddOutput("x_dot", "m/s", "Derivative of position")
	e.meta.AddOutput("f_mg", "N", "Main gear reaction force")
	e.meta.AddOutput("f_rr", "N", "Rolling resistance")
	e.meta.AddOutput("f_ng", "N", "Nose gear reaction force")

	e.meta.Declare("v_dot", "thrust", "alpha", "drag", "lift", "mass", "grav", "rw_slope", "mu")
	e.meta.Declare("x_dot", "V", "Vw")
	e.meta.Declare("f_mg", "mass", "grav", "rw_slope", "lift")
	e.meta.Declare("f_rr", "mass", "grav", "rw_slope", "lift", "mu")
	e.meta.Declare("f_ng", "mass", "grav", "rw_slope", "lift", "moment")
	return e
}

func addForceInputs(m *dynamo.Meta) {
	m.AddInput("thrust", "N", "Engine total thrust")
	m.AddInput("lift", "N", "Lift")
	m.AddInput("drag", "N", "Drag force")
	m.AddInput("moment", "N*m", "Aerodynamic moment")
	m.AddInput("V", "m/s", "Body x axis velocity")
	m.AddInput("mass", "kg", "Airplane mass")
}

func addRunwayInputs(m *dynamo.Meta) {
	m.AddScalarInput("rw_slope", "rad", "Runway slope")
	m.AddScalarInput("grav", "m/s**2", "Gravity acceleration")
	m.AddScalarInput("Vw", "m/s", "Wind speed along the runway, positive for a headwind")
	m.AddScalarInput("mu", "", "Rolling friction coefficient")
}

func (e *GroundRoll) Meta() *dynamo.Meta { return &e.meta }

func (e *GroundRoll) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	return e.eval(in, out, nil)
}

func (e *GroundRoll) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	return e.eval(in, nil, p)
}

func (e *GroundRoll) eval(in dynamo.Inputs, out dynamo.Outputs, p dynamo.Partials) error {
	thrust, lift, drag, moment := in["thrust"], in["lift"], in["drag"], in["moment"]
	v, mass, alpha := in["V"], in["mass"], in["alpha"]
	slope, grav, vw, mu := in["rw_slope"][0], in["grav"][0], in["Vw"][0], in["mu"][0]
	arm := e.xMain + e.xNose

	n := len(p.Get("v_dot", "thrust"))
	if out != nil {
		n = len(out["v_dot"])
	}
	for i := 0; i < n; i++ {
		m := mass.At(i)
		if m <= 0 {
			return dynamo.DomainError(e.meta.Name, i, "mass", m)
		}
		r := gearReaction(m, grav, slope, lift.At(i))
		vdot := runwayAccel(p, i, thrust.At(i), drag.At(i), lift.At(i), m, alpha.At(i), grav, slope, mu)

		if out != nil {
			out["v_dot"][i] = vdot
			out["x_dot"][i] = v.At(i) - vw
			out["f_mg"][i] = r.f
			out["f_rr"][i] = mu * r.f
			out["f_ng"][i] = (e.xMain*r.f - moment.At(i)) / arm
			continue
		}

		p.Get("x_dot", "V")[i] = 1
		p.Get("x_dot", "Vw")[i] = -1

		p.Get("f_mg", "mass")[i] = r.dMass
		p.Get("f_mg", "grav")[i] = r.dGrav
		p.Get("f_mg", "rw_slope")[i] = r.dSlope
		p.Get("f_mg", "lift")[i] = r.dLift

		p.Get("f_rr", "mass")[i] = mu * r.dMass
		p.Get("f_rr", "grav")[i] = mu * r.dGrav
		p.Get("f_rr", "rw_slope")[i] = mu * r.dSlope
		p.Get("f_rr", "lift")[i] = mu * r.dLift
		p.Get("f_rr", "mu")[i] = r.f

		k := e.xMain / arm
		p.Get("f_ng", "mass")[i] = k * r.dMass
		p.Get("f_ng", "grav")[i] = k * r.dGrav
		p.Get("f_ng", "rw_slope")[i] = k * r.dSlope
		p.Get("f_ng", "lift")[i] = k * r.dLift
		p.Get("f_ng", "moment")[i] = -1 / arm
	}
	return nil
}

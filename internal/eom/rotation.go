package eom

import (
	"math"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// Rotation models the pitch-up about the main gear. The gear arm x_mlg
// depends on pitch and is supplied by MainGearPosition; alpha equals theta
// while the main wheels roll.
type Rotation struct {
	meta dynamo.Meta
	iy   float64
}

func NewRotation(ap *aircraft.Airplane) *Rotation {
	e := &Rotation{meta: dynamo.Meta{Name: "rotation_eom"}, iy: ap.Inertia.Iy}
	addForceInputs(&e.meta)
	e.meta.AddInput("alpha", "rad", "Angle of attack")
	e.meta.AddInput("q", "rad/s", "Pitch rate")
	e.meta.AddInput("x_mlg", "m", "Main gear arm about the CG")
	addRunwayInputs(&e.meta)

	e.meta.AddOutput("v_dot", "m/s**2", "Body x axis acceleration")
	e.meta.AddOutput("x_dot", "m/s", "Derivative of position")
	e.meta.AddOutput("h_dot", "m/s", "Vertical rate while rotating about the gear")
	e.meta.AddOutput("q_dot", "rad/s**2", "Pitch acceleration")
	e.meta.AddOutput("theta_dot", "rad/s", "Pitch rate")
	e.meta.AddOutput("f_mg", "N", "Main gear reaction force")
	e.meta.AddOutput("f_rr", "N", "Rolling resistance")

	e.meta.Declare("v_dot", "thrust", "alpha", "drag", "lift", "mass", "grav", "rw_slope", "mu")
	e.meta.Declare("x_dot", "V", "Vw", "q", "x_mlg", "alpha")
	e.meta.Declare("h_dot", "q", "x_mlg", "alpha")
	e.meta.Declare("q_dot", "moment", "x_mlg", "lift", "mass", "grav", "rw_slope")
	e.meta.Declare("theta_dot", "q")
	e.meta.Declare("f_mg", "mass", "grav", "rw_slope", "lift")
	e.meta.Declare("f_rr", "mass", "grav", "rw_slope", "lift", "mu")
	return e
}

func (e *Rotation) Meta() *dynamo.Meta { return &e.meta }

func (e *Rotation) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	return e.eval(in, out, nil)
}

func (e *Rotation) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	return e.eval(in, nil, p)
}

func (e *Rotation) eval(in dynamo.Inputs, out dynamo.Outputs, p dynamo.Partials) error {
	thrust, lift, drag, moment := in["thrust"], in["lift"], in["drag"], in["moment"]
	v, mass, alpha, q, xmlg := in["V"], in["mass"], in["alpha"], in["q"], in["x_mlg"]
	slope, grav, vw, mu := in["rw_slope"][0], in["grav"][0], in["Vw"][0], in["mu"][0]

	n := len(p.Get("theta_dot", "q"))
	if out != nil {
		n = len(out["v_dot"])
	}
	for i := 0; i < n; i++ {
		m := mass.At(i)
		if m <= 0 {
			return dynamo.DomainError(e.meta.Name, i, "mass", m)
		}
		a, qi, x := alpha.At(i), q.At(i), xmlg.At(i)
		ca, sa := math.Cos(a), math.Sin(a)
		r := gearReaction(m, grav, slope, lift.At(i))
		vdot := runwayAccel(p, i, thrust.At(i), drag.At(i), lift.At(i), m, a, grav, slope, mu)

		if out != nil {
			out["v_dot"][i] = vdot
			out["x_dot"][i] = v.At(i) - vw - qi*x*sa
			out["h_dot"][i] = qi * x * ca
			out["q_dot"][i] = (moment.At(i) - x*r.f) / e.iy
			out["theta_dot"][i] = qi
			out["f_mg"][i] = r.f
			out["f_rr"][i] = mu * r.f
			continue
		}

		p.Get("x_dot", "V")[i] = 1
		p.Get("x_dot", "Vw")[i] = -1
		p.Get("x_dot", "q")[i] = -x * sa
		p.Get("x_dot", "x_mlg")[i] = -qi * sa
		p.Get("x_dot", "alpha")[i] = -qi * x * ca

		p.Get("h_dot", "q")[i] = x * ca
		p.Get("h_dot", "x_mlg")[i] = qi * ca
		p.Get("h_dot", "alpha")[i] = -qi * x * sa

		p.Get("q_dot", "moment")[i] = 1 / e.iy
		p.Get("q_dot", "x_mlg")[i] = -r.f / e.iy
		p.Get("q_dot", "lift")[i] = -x * r.dLift / e.iy
		p.Get("q_dot", "mass")[i] = -x * r.dMass / e.iy
		p.Get("q_dot", "grav")[i] = -x * r.dGrav / e.iy
		p.Get("q_dot", "rw_slope")[i] = -x * r.dSlope / e.iy

		p.Get("theta_dot", "q")[i] = 1

		p.Get("f_mg", "mass")[i] = r.dMass
		p.Get("f_mg", "grav")[i] = r.dGrav
		p.Get("f_mg", "rw_slope")[i] = r.dSlope
		p.Get("f_mg", "lift")[i] = r.dLift

		p.Get("f_rr", "mass")[i] = mu * r.dMass
		p.Get("f_rr", "grav")[i] = mu * r.dGrav
		p.Get("f_rr", "rw_slope")[i] = mu * r.dSlope
		p.Get("f_rr", "lift")[i] = mu * r.dLift
		p.Get("f_rr", "mu")[i] = r.f
	}
	return nil
}

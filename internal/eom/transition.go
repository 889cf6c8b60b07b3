package eom

import (
	"math"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// Transition is the airborne point-mass model flown from liftoff to the
// screen height. V is the airspeed; x stays runway referenced as in the
// ground phases:
//
//	v_dot   = (T*cos(a) - D - m*g*sin(gam)) / m
//	gam_dot = (T*sin(a) + L - m*g*cos(gam)) / (m*V)
//	x_dot   = V*cos(gam) - Vw
//	h_dot   = V*sin(gam)
//	q_dot   = M / Iy
//	theta_dot = q
type Transition struct {
	meta dynamo.Meta
	iy   float64
}

func NewTransition(ap *aircraft.Airplane) *Transition {
	e := &Transition{meta: dynamo.Meta{Name: "transition_eom"}, iy: ap.Inertia.Iy}
	addForceInputs(&e.meta)
	e.meta.AddInput("alpha", "rad", "Angle of attack")
	e.meta.AddInput("gam", "rad", "Flight path angle")
	e.meta.AddInput("q", "rad/s", "Pitch rate")
	e.meta.AddScalarInput("grav", "m/s**2", "Gravity acceleration")
	e.meta.AddScalarInput("Vw", "m/s", "Wind speed along the runway, positive for a headwind")

	e.meta.AddOutput("v_dot", "m/s**2", "Acceleration along the flight path")
	e.meta.AddOutput("gam_dot", "rad/s", "Flight path angle rate")
	e.meta.AddOutput("x_dot", "m/s", "Horizontal speed")
	e.meta.AddOutput("h_dot", "m/s", "Climb rate")
	e.meta.AddOutput("q_dot", "rad/s**2", "Pitch acceleration")
	e.meta.AddOutput("theta_dot", "rad/s", "Pitch rate")

	e.meta.Declare("v_dot", "thrust", "alpha", "drag", "mass", "grav", "gam")
	e.meta.Declare("gam_dot", "thrust", "alpha", "lift", "mass", "grav", "gam", "V")
	e.meta.Declare("x_dot", "V", "gam", "Vw")
	e.meta.Declare("h_dot", "V", "gam")
	e.meta.Declare("q_dot", "moment")
	e.meta.Declare("theta_dot", "q")
	return e
}

func (e *Transition) Meta() *dynamo.Meta { return &e.meta }

func (e *Transition) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	return e.eval(in, out, nil)
}

func (e *Transition) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	return e.eval(in, nil, p)
}

func (e *Transition) eval(in dynamo.Inputs, out dynamo.Outputs, p dynamo.Partials) error {
	thrust, lift, drag, moment := in["thrust"], in["lift"], in["drag"], in["moment"]
	vel, mass, alpha, gam, q := in["V"], in["mass"], in["alpha"], in["gam"], in["q"]
	g, vw := in["grav"][0], in["Vw"][0]

	n := len(p.Get("theta_dot", "q"))
	if out != nil {
		n = len(out["v_dot"])
	}
	for i := 0; i < n; i++ {
		m, v := mass.At(i), vel.At(i)
		if m <= 0 {
			return dynamo.DomainError(e.meta.Name, i, "mass", m)
		}
		if v <= 0 {
			return dynamo.DomainError(e.meta.Name, i, "V", v)
		}
		t, l, d := thrust.At(i), lift.At(i), drag.At(i)
		ca, sa := math.Cos(alpha.At(i)), math.Sin(alpha.At(i))
		cg, sg := math.Cos(gam.At(i)), math.Sin(gam.At(i))

		if out != nil {
			out["v_dot"][i] = (t*ca-d)/m - g*sg
			out["gam_dot"][i] = (t*sa+l)/(m*v) - g*cg/v
			out["x_dot"][i] = v*cg - vw
			out["h_dot"][i] = v * sg
			out["q_dot"][i] = moment.At(i) / e.iy
			out["theta_dot"][i] = q.At(i)
			continue
		}

		p.Get("v_dot", "thrust")[i] = ca / m
		p.Get("v_dot", "alpha")[i] = -t * sa / m
		p.Get("v_dot", "drag")[i] = -1 / m
		p.Get("v_dot", "mass")[i] = (d - t*ca) / (m * m)
		p.Get("v_dot", "grav")[i] = -sg
		p.Get("v_dot", "gam")[i] = -g * cg

		p.Get("gam_dot", "thrust")[i] = sa / (v * m)
		p.Get("gam_dot", "alpha")[i] = t * ca / (v * m)
		p.Get("gam_dot", "lift")[i] = 1 / (v * m)
		p.Get("gam_dot", "mass")[i] = -(l + t*sa) / (v * m * m)
		p.Get("gam_dot", "grav")[i] = -cg / v
		p.Get("gam_dot", "gam")[i] = g * sg / v
		p.Get("gam_dot", "V")[i] = (g*m*cg - l - t*sa) / (v * v * m)

		p.Get("x_dot", "V")[i] = cg
		p.Get("x_dot", "gam")[i] = -v * sg
		p.Get("x_dot", "Vw")[i] = -1
		p.Get("h_dot", "V")[i] = sg
		p.Get("h_dot", "gam")[i] = v * cg

		p.Get("q_dot", "moment")[i] = 1 / e.iy
		p.Get("theta_dot", "q")[i] = 1
	}
	return nil
}

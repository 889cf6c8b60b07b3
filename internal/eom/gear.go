package eom

import (
	"math"

	"github.com/san-kum/takeoff/internal/dynamo"
)

// reaction holds the main gear normal force f_mg = m*g*cos(slope) - L and
// its partials.
type reaction struct {
	f, dMass, dGrav, dSlope, dLift float64
}

func gearReaction(mass, grav, slope, lift float64) reaction {
	c, s := math.Cos(slope), math.Sin(slope)
	return reaction{
		f:      mass*grav*c - lift,
		dMass:  grav * c,
		dGrav:  mass * c,
		dSlope: -mass * grav * s,
		dLift:  -1,
	}
}

// runwayAccel evaluates v_dot = (T*cos(a) - D - mu*f_mg - m*g*sin(slope))/m
// and writes its partials at node i. Only the pairs present in p are set.
func runwayAccel(p dynamo.Partials, i int, thrust, drag, lift, mass, alpha, grav, slope, mu float64) float64 {
	ca, sa := math.Cos(alpha), math.Sin(alpha)
	cs, ss := math.Cos(slope), math.Sin(slope)
	net := thrust*ca - drag + mu*lift
	vdot := net/mass - grav*(mu*cs+ss)
	if p == nil {
		return vdot
	}
	set(p, "v_dot", "thrust", i, ca/mass)
	set(p, "v_dot", "alpha", i, -thrust*sa/mass)
	set(p, "v_dot", "drag", i, -1/mass)
	set(p, "v_dot", "lift", i, mu/mass)
	set(p, "v_dot", "mass", i, -net/(mass*mass))
	set(p, "v_dot", "grav", i, -(mu*cs + ss))
	set(p, "v_dot", "rw_slope", i, -grav*(cs-mu*ss))
	set(p, "v_dot", "mu", i, lift/mass-grav*cs)
	return vdot
}

// set writes d(of)/d(wrt) at node i if the pair is declared.
func set(p dynamo.Partials, of, wrt string, i int, v float64) {
	if d, ok := p[dynamo.Pair{Of: of, Wrt: wrt}]; ok {
		d[i] = v
	}
}

// MainGearPosition returns the horizontal distance from the CG aft to the
// main gear contact point, x_mlg(theta) = a*cos(theta) - b*sin(theta), for a
// gear a aft of and b below the CG.
type MainGearPosition struct {
	meta dynamo.Meta
	a, b float64
}

func NewMainGearPosition(aft, below float64) *MainGearPosition {
	m := &MainGearPosition{meta: dynamo.Meta{Name: "mlg_pos"}, a: aft, b: below}
	m.meta.AddInput("theta", "rad", "Pitch angle")
	m.meta.AddOutput("x_mlg", "m", "Main gear arm about the CG")
	m.meta.Declare("x_mlg", "theta")
	return m
}

func (m *MainGearPosition) Meta() *dynamo.Meta { return &m.meta }

func (m *MainGearPosition) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	theta := in["theta"]
	for i := range out["x_mlg"] {
		out["x_mlg"][i] = m.a*math.Cos(theta.At(i)) - m.b*math.Sin(theta.At(i))
	}
	return nil
}

func (m *MainGearPosition) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	theta := in["theta"]
	d := p.Get("x_mlg", "theta")
	for i := range d {
		d[i] = -m.a*math.Sin(theta.At(i)) - m.b*math.Cos(theta.At(i))
	}
	return nil
}

// Alpha computes the angle of attack alpha = theta - gam.
type Alpha struct {
	meta dynamo.Meta
}

func NewAlpha() *Alpha {
	a := &Alpha{meta: dynamo.Meta{Name: "alpha_comp"}}
	a.meta.AddInput("theta", "rad", "Pitch angle")
	a.meta.AddInput("gam", "rad", "Flight path angle")
	a.meta.AddOutput("alpha", "rad", "Angle of attack")
	a.meta.Declare("alpha", "theta", "gam")
	return a
}

func (a *Alpha) Meta() *dynamo.Meta { return &a.meta }

func (a *Alpha) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	theta, gam := in["theta"], in["gam"]
	for i := range out["alpha"] {
		out["alpha"][i] = theta.At(i) - gam.At(i)
	}
	return nil
}

func (a *Alpha) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	dt, dg := p.Get("alpha", "theta"), p.Get("alpha", "gam")
	for i := range dt {
		dt[i] = 1
		dg[i] = -1
	}
	return nil
}

// TrueAirspeed converts the runway-referenced speed v into airspeed for
// the phases that start at rest on the ground.
type TrueAirspeed struct {
	meta dynamo.Meta
}

func NewTrueAirspeed() *TrueAirspeed {
	a := &TrueAirspeed{meta: dynamo.Meta{Name: "tas_comp"}}
	a.meta.AddInput("v", "m/s", "Speed relative to the runway")
	a.meta.AddScalarInput("Vw", "m/s", "Wind speed along the runway, positive for a headwind")
	a.meta.AddOutput("tas", "m/s", "True airspeed")
	a.meta.Declare("tas", "v", "Vw")
	return a
}

func (a *TrueAirspeed) Meta() *dynamo.Meta { return &a.meta }

func (a *TrueAirspeed) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	v, vw := in["v"], in["Vw"][0]
	for i := range out["tas"] {
		out["tas"][i] = v.At(i) + vw
	}
	return nil
}

func (a *TrueAirspeed) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	dv, dw := p.Get("tas", "v"), p.Get("tas", "Vw")
	for i := range dv {
		dv[i] = 1
		dw[i] = 1
	}
	return nil
}

package aero

import (
	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// DynamicPressure computes qbar = 0.5*rho*tas^2.
type DynamicPressure struct {
	meta dynamo.Meta
}

func NewDynamicPressure() *DynamicPressure {
	d := &DynamicPressure{meta: dynamo.Meta{Name: "dyn_press"}}
	d.meta.AddScalarInput("rho", "kg/m**3", "Air density")
	d.meta.AddInput("tas", "m/s", "True airspeed")
	d.meta.AddOutput("qbar", "Pa", "Dynamic pressure")
	d.meta.Declare("qbar", "rho", "tas")
	return d
}

func (d *DynamicPressure) Meta() *dynamo.Meta { return &d.meta }

func (d *DynamicPressure) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	rho, tas := in["rho"][0], in["tas"]
	for i := range out["qbar"] {
		v := tas.At(i)
		out["qbar"][i] = 0.5 * rho * v * v
	}
	return nil
}

func (d *DynamicPressure) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	rho, tas := in["rho"][0], in["tas"]
	dRho, dTas := p.Get("qbar", "rho"), p.Get("qbar", "tas")
	for i := range dTas {
		v := tas.At(i)
		dRho[i] = 0.5 * v * v
		dTas[i] = rho * v
	}
	return nil
}

// Forces turns coefficients into L = CL*qbar*S, D = CD*qbar*S and
// M = Cm*qbar*S*c.
type Forces struct {
	meta  dynamo.Meta
	area  float64
	chord float64
}

func NewForces(ap *aircraft.Airplane) *Forces {
	f := &Forces{meta: dynamo.Meta{Name: "lift_drag_moment"}, area: ap.Wing.Area, chord: ap.Wing.MAC}
	f.meta.AddInput("CL", "", "Lift coefficient")
	f.meta.AddInput("CD", "", "Drag coefficient")
	f.meta.AddInput("Cm", "", "Pitching moment coefficient")
	f.meta.AddInput("qbar", "Pa", "Dynamic pressure")
	f.meta.AddOutput("L", "N", "Lift")
	f.meta.AddOutput("D", "N", "Drag")
	f.meta.AddOutput("M", "N*m", "Pitching moment")
	f.meta.Declare("L", "CL", "qbar")
	f.meta.Declare("D", "CD", "qbar")
	f.meta.Declare("M", "Cm", "qbar")
	return f
}

func (f *Forces) Meta() *dynamo.Meta { return &f.meta }

func (f *Forces) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	cl, cd, cm, qbar := in["CL"], in["CD"], in["Cm"], in["qbar"]
	for i := range out["L"] {
		qs := qbar.At(i) * f.area
		out["L"][i] = cl.At(i) * qs
		out["D"][i] = cd.At(i) * qs
		out["M"][i] = cm.At(i) * qs * f.chord
	}
	return nil
}

func (f *Forces) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	cl, cd, cm, qbar := in["CL"], in["CD"], in["Cm"], in["qbar"]
	s, c := f.area, f.chord
	for i := range p.Get("L", "CL") {
		q := qbar.At(i)
		p.Get("L", "CL")[i] = q * s
		p.Get("L", "qbar")[i] = cl.At(i) * s
		p.Get("D", "CD")[i] = q * s
		p.Get("D", "qbar")[i] = cd.At(i) * s
		p.Get("M", "Cm")[i] = q * s * c
		p.Get("M", "qbar")[i] = cm.At(i) * s * c
	}
	return nil
}

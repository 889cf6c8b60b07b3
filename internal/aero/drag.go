package aero

import (
	"math"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// gearExp is the mass exponent of the landing gear drag increment.
const gearExp = -0.215

// DragCoeff evaluates CD = CD0 + CDflap*df^2 + phi*k*CL^2 + dCD_gear with
// dCD_gear = (m*g/S) * Kuc * m^-0.215.
type DragCoeff struct {
	meta dynamo.Meta
	cd0  float64
	cdf  float64
	k    float64
	kuc  float64
	area float64
	gear bool
}

// NewDragCoeff builds the drag polar for mode. The landing gear increment,
// the only mass and gravity dependence of the coefficients, is included
// when gear is set.
func NewDragCoeff(ap *aircraft.Airplane, mode Mode, gear bool) *DragCoeff {
	phi := 1.0
	if mode == GroundEffect {
		phi = ap.Coeffs.GroundPhi
	}
	d := &DragCoeff{
		meta: dynamo.Meta{Name: "cd"},
		cd0:  ap.Coeffs.CD0,
		cdf:  ap.Coeffs.CDFlap,
		k:    phi * ap.Wing.InducedDragFactor(),
		kuc:  ap.Coeffs.Kuc,
		area: ap.Wing.Area,
		gear: gear,
	}
	d.meta.AddScalarInput("flap_angle", "rad", "Flap deflection")
	d.meta.AddInput("CL", "", "Lift coefficient")
	d.meta.AddOutput("CD", "", "Drag coefficient")
	d.meta.Declare("CD", "flap_angle", "CL")
	if gear {
		d.meta.AddScalarInput("grav", "m/s**2", "Gravity acceleration")
		d.meta.AddInput("mass", "kg", "Airplane mass")
		d.meta.Declare("CD", "grav", "mass")
	}
	return d
}

func (d *DragCoeff) Meta() *dynamo.Meta { return &d.meta }

func (d *DragCoeff) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	flap, cl := in["flap_angle"][0], in["CL"]
	cd := out["CD"]
	for i := range cd {
		cd[i] = d.cd0 + d.cdf*flap*flap + d.k*cl.At(i)*cl.At(i)
	}
	if !d.gear {
		return nil
	}
	g, mass := in["grav"][0], in["mass"]
	for i := range cd {
		m := mass.At(i)
		if m <= 0 {
			return dynamo.DomainError(d.meta.Name, i, "mass", m)
		}
		cd[i] += g * d.kuc / d.area * math.Pow(m, 1+gearExp)
	}
	return nil
}

func (d *DragCoeff) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	flap, cl := in["flap_angle"][0], in["CL"]
	dFlap, dCL := p.Get("CD", "flap_angle"), p.Get("CD", "CL")
	for i := range dCL {
		dFlap[i] = 2 * d.cdf * flap
		dCL[i] = 2 * d.k * cl.At(i)
	}
	if !d.gear {
		return nil
	}
	g, mass := in["grav"][0], in["mass"]
	dG, dM := p.Get("CD", "grav"), p.Get("CD", "mass")
	for i := range dG {
		m := mass.At(i)
		if m <= 0 {
			return dynamo.DomainError(d.meta.Name, i, "mass", m)
		}
		dG[i] = d.kuc / d.area * math.Pow(m, 1+gearExp)
		dM[i] = (1 + gearExp) * g * d.kuc / d.area * math.Pow(m, gearExp)
	}
	return nil
}

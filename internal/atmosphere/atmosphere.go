// Package atmosphere implements the US Standard Atmosphere 1976 troposphere.
package atmosphere

import (
	"math"

	"github.com/san-kum/takeoff/internal/dynamo"
)

const (
	T0     = 288.15   // sea-level temperature, K
	P0     = 101325.0 // sea-level pressure, Pa
	Rho0   = 1.225    // sea-level density, kg/m^3
	Lapse  = 0.0065   // temperature lapse rate, K/m
	R      = 287.053  // specific gas constant of air, J/(kg K)
	Gamma  = 1.4
	expo   = 5.25588 // g0 / (R * Lapse)
	MinAlt = -610.0
	MaxAlt = 11000.0
)

// Sos0 is the sea-level speed of sound.
var Sos0 = math.Sqrt(Gamma * R * T0)

// Conditions is the ambient state at one elevation.
type Conditions struct {
	Temp float64
	Pres float64
	Rho  float64
	Sos  float64
}

// At returns the ambient conditions at elevation h (m).
func At(h float64) (Conditions, error) {
	if h < MinAlt || h > MaxAlt || math.IsNaN(h) {
		return Conditions{}, dynamo.DomainError("atmosphere", -1, "elevation", h)
	}
	t := T0 - Lapse*h
	p := P0 * math.Pow(t/T0, expo)
	return Conditions{
		Temp: t,
		Pres: p,
		Rho:  p / (R * t),
		Sos:  math.Sqrt(Gamma * R * t),
	}, nil
}

// Model exposes At as a component with scalar elevation input and scalar
// rho, sos and pres outputs.
type Model struct {
	meta dynamo.Meta
}

func New() *Model {
	m := &Model{meta: dynamo.Meta{Name: "atmos"}}
	m.meta.AddScalarInput("elevation", "m", "Runway elevation")
	m.meta.AddScalarOutput("rho", "kg/m**3", "Air density")
	m.meta.AddScalarOutput("sos", "m/s", "Speed of sound")
	m.meta.AddScalarOutput("pres", "Pa", "Static pressure")
	m.meta.Declare("rho", "elevation")
	m.meta.Declare("sos", "elevation")
	m.meta.Declare("pres", "elevation")
	return m
}

func (m *Model) Meta() *dynamo.Meta { return &m.meta }

func (m *Model) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	c, err := At(in["elevation"][0])
	if err != nil {
		return err
	}
	out["rho"][0] = c.Rho
	out["sos"][0] = c.Sos
	out["pres"][0] = c.Pres
	return nil
}

func (m *Model) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	c, err := At(in["elevation"][0])
	if err != nil {
		return err
	}
	p.Get("pres", "elevation")[0] = -expo * Lapse * c.Pres / c.Temp
	p.Get("rho", "elevation")[0] = c.Rho * Lapse * (1 - expo) / c.Temp
	p.Get("sos", "elevation")[0] = -Lapse * c.Sos / (2 * c.Temp)
	return nil
}

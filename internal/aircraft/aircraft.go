// Package aircraft provides immutable airplane and runway data keyed by
// identifier.
package aircraft

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrUnknownAirplane = errors.New("aircraft: unknown airplane")

type Airplane struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Limits      Limits      `yaml:"limits"`
	Inertia     Inertia     `yaml:"inertia"`
	LandingGear LandingGear `yaml:"landing_gear"`
	Wing        Wing        `yaml:"wing"`
	Coeffs      Coeffs      `yaml:"coefficients"`
	Engine      Engine      `yaml:"engine"`
}

type Limits struct {
	MTOW     float64 `yaml:"mtow"`      // kg
	MinMass  float64 `yaml:"min_mass"`  // kg
	DeMin    float64 `yaml:"de_min"`    // rad, trailing edge up
	DeMax    float64 `yaml:"de_max"`    // rad
	AlphaMax float64 `yaml:"alpha_max"` // rad
}

type Inertia struct {
	Iy float64 `yaml:"iy"` // kg m^2
}

// LandingGear positions are measured from the centre of gravity. The main
// gear sits MainX aft of and MainZ below the CG; the nose gear NoseX forward.
type LandingGear struct {
	MainX float64 `yaml:"main_x"`
	MainZ float64 `yaml:"main_z"`
	NoseX float64 `yaml:"nose_x"`
}

type Wing struct {
	Area   float64 `yaml:"area"` // m^2
	Span   float64 `yaml:"span"` // m
	MAC    float64 `yaml:"mac"`  // m
	Oswald float64 `yaml:"oswald"`
}

func (w Wing) AspectRatio() float64 { return w.Span * w.Span / w.Area }

// InducedDragFactor returns k in CDi = k*CL^2.
func (w Wing) InducedDragFactor() float64 {
	return 1 / (math.Pi * w.AspectRatio() * w.Oswald)
}

// Coeffs holds the linear aerodynamic derivatives, all per radian.
type Coeffs struct {
	CL0       float64 `yaml:"cl0"`
	CLFlap    float64 `yaml:"cl_flap"`
	CLAlpha   float64 `yaml:"cl_alpha"`
	CLDe      float64 `yaml:"cl_de"`
	CLq       float64 `yaml:"cl_q"`
	Cm0       float64 `yaml:"cm0"`
	CmFlap    float64 `yaml:"cm_flap"`
	CmAlpha   float64 `yaml:"cm_alpha"`
	CmDe      float64 `yaml:"cm_de"`
	Cmq       float64 `yaml:"cm_q"`
	CD0       float64 `yaml:"cd0"`
	CDFlap    float64 `yaml:"cd_flap"`
	GroundPhi float64 `yaml:"ground_phi"` // induced drag factor in ground effect
	Kuc       float64 `yaml:"k_uc"`       // landing gear drag constant
}

// Engine describes one turbofan of a twin (or more) installation.
type Engine struct {
	Count  int     `yaml:"count"`
	Thrust float64 `yaml:"thrust"` // sea-level static thrust per engine, N
	K1     float64 `yaml:"k1"`
	K2     float64 `yaml:"k2"`
	TSFC   float64 `yaml:"tsfc"` // kg/(N s)
	KC     float64 `yaml:"kc"`
}

// Validate reports the first physically meaningless field.
func (a *Airplane) Validate() error {
	switch {
	case a.Limits.MTOW <= 0:
		return fmt.Errorf("airplane %s: mtow must be positive", a.ID)
	case a.Limits.MinMass <= 0 || a.Limits.MinMass > a.Limits.MTOW:
		return fmt.Errorf("airplane %s: min_mass must be in (0, mtow]", a.ID)
	case a.Limits.DeMin > a.Limits.DeMax:
		return fmt.Errorf("airplane %s: de_min exceeds de_max", a.ID)
	case a.Limits.AlphaMax <= 0:
		return fmt.Errorf("airplane %s: alpha_max must be positive", a.ID)
	case a.Inertia.Iy <= 0:
		return fmt.Errorf("airplane %s: iy must be positive", a.ID)
	case a.LandingGear.MainX <= 0 || a.LandingGear.NoseX <= 0:
		return fmt.Errorf("airplane %s: gear offsets must be positive", a.ID)
	case a.Wing.Area <= 0 || a.Wing.Span <= 0 || a.Wing.MAC <= 0 || a.Wing.Oswald <= 0:
		return fmt.Errorf("airplane %s: wing reference data must be positive", a.ID)
	case a.Engine.Count < 1 || a.Engine.Thrust <= 0:
		return fmt.Errorf("airplane %s: engine data must be positive", a.ID)
	}
	return nil
}

// Runway is the takeoff surface. Slope is positive uphill.
type Runway struct {
	TORA      float64 `yaml:"tora"`      // m
	Elevation float64 `yaml:"elevation"` // m
	Slope     float64 `yaml:"slope"`     // rad
	Friction  float64 `yaml:"friction"`  // rolling friction coefficient
}

func (r Runway) Validate() error {
	if r.TORA <= 0 {
		return fmt.Errorf("runway: tora must be positive, got %v", r.TORA)
	}
	if math.Abs(r.Slope) >= math.Pi/2 {
		return fmt.Errorf("runway: slope out of range: %v", r.Slope)
	}
	if r.Friction < 0 {
		return fmt.Errorf("runway: friction must be non-negative, got %v", r.Friction)
	}
	return nil
}

// LoadAirplane reads an airplane definition from a YAML file.
func LoadAirplane(path string) (*Airplane, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ap := &Airplane{}
	if err := yaml.Unmarshal(data, ap); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ap.Validate(); err != nil {
		return nil, err
	}
	return ap, nil
}

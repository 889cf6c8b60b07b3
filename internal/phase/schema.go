package phase

import (
	"fmt"
	"math"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/propulsion"
)

// Parameters are shared by every phase and wired identically into each.
var Parameters = []string{"elevation", "rw_slope", "flap_angle", "Vw", "grav", "mu"}

// Bounds is a closed interval; infinite ends are unbounded.
type Bounds struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

func Unbounded() Bounds { return Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)} }
func AtLeast(v float64) Bounds { return Bounds{Lower: v, Upper: math.Inf(1)} }
func AtMost(v float64) Bounds { return Bounds{Lower: math.Inf(-1), Upper: v} }
func Between(lo, hi float64) Bounds { return Bounds{Lower: lo, Upper: hi} }
func Equal(v float64) Bounds { return Bounds{Lower: v, Upper: v} }

func (b Bounds) Valid() bool {
	return !math.IsNaN(b.Lower) && !math.IsNaN(b.Upper) && b.Lower <= b.Upper
}

func (b Bounds) IsEquality() bool { return b.Lower == b.Upper }

// Violation returns how far v lies outside b, or 0 inside.
func (b Bounds) Violation(v float64) float64 {
	switch {
	case v < b.Lower:
		return b.Lower - v
	case v > b.Upper:
		return v - b.Upper
	}
	return 0
}

// InitialPolicy says how a state's value at the first node is determined.
type InitialPolicy int

const (
	Fixed InitialPolicy = iota
	Free
	Linked
)

func (p InitialPolicy) String() string {
	switch p {
	case Fixed:
		return "fixed"
	case Free:
		return "free"
	case Linked:
		return "linked"
	}
	return "unknown"
}

func (p InitialPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type State struct {
	Name     string        `yaml:"name"`
	Units    string        `yaml:"units"`
	Rate     string        `yaml:"rate_source"`
	Bounds   Bounds        `yaml:"bounds"`
	Initial  InitialPolicy `yaml:"initial"`
	Value    float64       `yaml:"initial_value,omitempty"` // used when Initial is Fixed
	FixFinal bool          `yaml:"fix_final"`
}

type Control struct {
	Name   string `yaml:"name"`
	Units  string `yaml:"units"`
	Bounds Bounds `yaml:"bounds"`
}

// Location places a boundary constraint at a phase end.
type Location int

const (
	LocInitial Location = iota
	LocFinal
)

func (l Location) String() string {
	if l == LocFinal {
		return "final"
	}
	return "initial"
}

func (l Location) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Constraint bounds an ODE output or state. Loc applies to boundary
// constraints only.
type Constraint struct {
	Name   string   `yaml:"name"`
	Units  string   `yaml:"units"`
	Bounds Bounds   `yaml:"bounds"`
	Loc    Location `yaml:"loc,omitempty"`
}

type Time struct {
	FixInitial bool    `yaml:"fix_initial"`
	Initial    float64 `yaml:"initial,omitempty"`
	Duration   Bounds  `yaml:"duration"`
}

// Schema is the declaration a phase exposes to the optimizer.
type Schema struct {
	Kind       Kind               `yaml:"kind"`
	Time       Time               `yaml:"time"`
	States     []State            `yaml:"states"`
	Controls   []Control          `yaml:"controls"`
	Parameters []string           `yaml:"parameters"`
	Path       []Constraint       `yaml:"path_constraints"`
	Boundary   []Constraint       `yaml:"boundary_constraints"`
	Fixed      map[string]float64 `yaml:"fixed,omitempty"`
}

func (s *Schema) State(name string) (State, bool) {
	for _, st := range s.States {
		if st.Name == name {
			return st, true
		}
	}
	return State{}, false
}

func (s *Schema) Control(name string) (Control, bool) {
	for _, c := range s.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// Has reports whether name is a state or control of the phase.
func (s *Schema) Has(name string) bool {
	_, st := s.State(name)
	_, c := s.Control(name)
	return st || c
}

// Validate checks every bound is consistent and names are unique.
func (s *Schema) Validate() error {
	cerr := func(v, reason string) error {
		return &dynamo.ConfigError{Phase: s.Kind.String(), Variable: v, Reason: reason}
	}
	if !s.Kind.Valid() {
		return cerr("", "invalid phase kind")
	}
	if !s.Time.Duration.Valid() || s.Time.Duration.Lower < 0 {
		return cerr("time", "inconsistent duration bounds")
	}
	seen := make(map[string]bool)
	for _, st := range s.States {
		if seen[st.Name] {
			return cerr(st.Name, "declared twice")
		}
		seen[st.Name] = true
		if st.Rate == "" {
			return cerr(st.Name, "state has no rate source")
		}
		if !st.Bounds.Valid() {
			return cerr(st.Name, fmt.Sprintf("lower bound %g exceeds upper bound %g", st.Bounds.Lower, st.Bounds.Upper))
		}
		if st.Initial == Fixed && st.Bounds.Violation(st.Value) > 0 {
			return cerr(st.Name, "fixed initial value outside bounds")
		}
	}
	for _, c := range s.Controls {
		if seen[c.Name] {
			return cerr(c.Name, "declared twice")
		}
		seen[c.Name] = true
		if !c.Bounds.Valid() {
			return cerr(c.Name, fmt.Sprintf("lower bound %g exceeds upper bound %g", c.Bounds.Lower, c.Bounds.Upper))
		}
	}
	for _, group := range [][]Constraint{s.Path, s.Boundary} {
		for _, c := range group {
			if !c.Bounds.Valid() {
				return cerr(c.Name, "inconsistent constraint bounds")
			}
		}
	}
	return nil
}

// Options selects the physical variant of the takeoff.
type Options struct {
	Condition    propulsion.Condition
	LandingGear  bool
	ScreenHeight float64 // m
	LiftoffTol   float64 // N, upper bound of f_mg at liftoff
	MaxDuration  [3]float64
}

// DefaultOptions uses the 35 ft screen and a 0.01 N liftoff tolerance.
func DefaultOptions() Options {
	return Options{
		Condition:    propulsion.AEO,
		LandingGear:  true,
		ScreenHeight: 10.668,
		LiftoffTol:   0.01,
		MaxDuration:  [3]float64{100, 20, 30},
	}
}

// SchemaFor declares the states, controls and constraints of kind.
func SchemaFor(k Kind, ap *aircraft.Airplane, rw aircraft.Runway, o Options) Schema {
	mass := State{Name: "mass", Units: "kg", Rate: "m_dot",
		Bounds: Between(ap.Limits.MinMass, ap.Limits.MTOW), Initial: Linked}
	x := State{Name: "x", Units: "m", Rate: "x_dot", Bounds: AtLeast(0), Initial: Linked}
	v := State{Name: "v", Units: "m/s", Rate: "v_dot", Bounds: AtLeast(0), Initial: Linked}
	h := State{Name: "h", Units: "m", Rate: "h_dot", Bounds: AtLeast(0), Initial: Linked}
	theta := State{Name: "theta", Units: "rad", Rate: "theta_dot", Bounds: Between(-math.Pi/2, math.Pi/2), Initial: Linked}
	q := State{Name: "q", Units: "rad/s", Rate: "q_dot", Bounds: Unbounded(), Initial: Linked}
	gam := State{Name: "gam", Units: "rad", Rate: "gam_dot", Bounds: Between(-math.Pi/2, math.Pi/2), Initial: Fixed}
	de := Control{Name: "de", Units: "rad", Bounds: Between(ap.Limits.DeMin, ap.Limits.DeMax)}

	s := Schema{
		Kind:       k,
		Controls:   []Control{de},
		Parameters: append([]string(nil), Parameters...),
		Time:       Time{Duration: Between(0, o.MaxDuration[k])},
	}
	switch k {
	case GroundRoll:
		x.Initial, v.Initial, mass.Initial = Fixed, Fixed, Free
		s.Time.FixInitial = true
		s.Time.Duration.Lower = 1
		s.States = []State{x, v, mass}
		s.Fixed = map[string]float64{"alpha": 0}
		s.Path = []Constraint{{Name: "f_mg", Units: "N", Bounds: AtLeast(0)}}
		s.Boundary = []Constraint{{Name: "f_ng", Units: "N", Bounds: Equal(0), Loc: LocFinal}}
	case Rotation:
		h.Initial, theta.Initial, q.Initial = Fixed, Fixed, Fixed
		s.States = []State{x, h, v, mass, theta, q}
		s.Path = []Constraint{{Name: "f_mg", Units: "N", Bounds: AtLeast(0)}}
		s.Boundary = []Constraint{
			{Name: "f_mg", Units: "N", Bounds: Between(0, o.LiftoffTol), Loc: LocFinal},
			{Name: "x", Units: "m", Bounds: AtMost(rw.TORA), Loc: LocFinal},
		}
	case Transition:
		s.States = []State{x, h, v, gam, theta, q, mass}
		s.Path = []Constraint{{Name: "alpha", Units: "rad", Bounds: AtMost(ap.Limits.AlphaMax)}}
		s.Boundary = []Constraint{{Name: "h", Units: "m", Bounds: Equal(o.ScreenHeight), Loc: LocFinal}}
	}
	return s
}

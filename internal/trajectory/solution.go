package trajectory

import (
	"math"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/phase"
)

// Parameters are the values shared by every phase. Elevation is in m, slope
// and flap angle in rad, Vw in m/s (positive for a headwind).
type Parameters struct {
	Elevation float64 `msgpack:"elevation" yaml:"elevation"`
	Slope     float64 `msgpack:"rw_slope" yaml:"rw_slope"`
	FlapAngle float64 `msgpack:"flap_angle" yaml:"flap_angle"`
	Vw        float64 `msgpack:"vw" yaml:"vw"`
	Grav      float64 `msgpack:"grav" yaml:"grav"`
	Mu        float64 `msgpack:"mu" yaml:"mu"`
}

const StandardGravity = 9.80665

// DefaultParameters takes elevation, slope and friction from the runway.
func DefaultParameters(rw aircraft.Runway, flapDeg, windSpeed float64) Parameters {
	return Parameters{
		Elevation: rw.Elevation,
		Slope:     rw.Slope,
		FlapAngle: flapDeg * math.Pi / 180,
		Vw:        windSpeed,
		Grav:      StandardGravity,
		Mu:        rw.Friction,
	}
}

// Inputs returns the parameters as length-1 vectors keyed by variable name.
func (p Parameters) Inputs() dynamo.Inputs {
	return dynamo.Inputs{
		"elevation":  {p.Elevation},
		"rw_slope":   {p.Slope},
		"flap_angle": {p.FlapAngle},
		"Vw":         {p.Vw},
		"grav":       {p.Grav},
		"mu":         {p.Mu},
	}
}

// PhaseSolution holds the node time history of one phase: every state and
// control, plus whatever ODE outputs the producer chose to record.
type PhaseSolution struct {
	Kind   phase.Kind           `msgpack:"kind"`
	Time   []float64            `msgpack:"time"`
	Values map[string][]float64 `msgpack:"values"`
}

func (ps *PhaseSolution) N() int { return len(ps.Time) }

// Initial returns the first-node value of name.
func (ps *PhaseSolution) Initial(name string) (float64, bool) {
	if name == "time" {
		if len(ps.Time) == 0 {
			return 0, false
		}
		return ps.Time[0], true
	}
	v, ok := ps.Values[name]
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Final returns the last-node value of name.
func (ps *PhaseSolution) Final(name string) (float64, bool) {
	if name == "time" {
		if len(ps.Time) == 0 {
			return 0, false
		}
		return ps.Time[len(ps.Time)-1], true
	}
	v, ok := ps.Values[name]
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[len(v)-1], true
}

// Solution is an iterate of the full three-phase problem.
type Solution struct {
	Params Parameters       `msgpack:"params"`
	Phases []*PhaseSolution `msgpack:"phases"`
}

func (s *Solution) Phase(k phase.Kind) *PhaseSolution {
	for _, ps := range s.Phases {
		if ps.Kind == k {
			return ps
		}
	}
	return nil
}

// NodeValues converts one phase of the solution into evaluation input.
func (s *Solution) NodeValues(k phase.Kind) (phase.NodeValues, bool) {
	ps := s.Phase(k)
	if ps == nil {
		return phase.NodeValues{}, false
	}
	in := s.Params.Inputs()
	for name, v := range ps.Values {
		in[name] = dynamo.Vector(v)
	}
	return phase.NodeValues{Time: ps.Time, Values: in}, true
}

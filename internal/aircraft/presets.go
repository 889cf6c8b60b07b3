package aircraft

import (
	"fmt"
	"math"
	"sort"

	"github.com/brunoga/deep"
)

const deg = math.Pi / 180

var airplanes = map[string]*Airplane{
	"b734": {
		ID:   "b734",
		Name: "Boeing 737-400",
		Limits: Limits{
			MTOW:     68000,
			MinMass:  33200,
			DeMin:    -25 * deg,
			DeMax:    15 * deg,
			AlphaMax: 14 * deg,
		},
		Inertia:     Inertia{Iy: 3.0e6},
		LandingGear: LandingGear{MainX: 1.0, MainZ: 2.0, NoseX: 14.0},
		Wing:        Wing{Area: 105.4, Span: 28.88, MAC: 3.73, Oswald: 0.8},
		Coeffs: Coeffs{
			CL0:       0.5,
			CLFlap:    3.4,
			CLAlpha:   6.0,
			CLDe:      0.4,
			CLq:       3.0,
			Cm0:       -0.05,
			CmFlap:    -0.1,
			CmAlpha:   -1.0,
			CmDe:      -1.5,
			Cmq:       -15.0,
			CD0:       0.02,
			CDFlap:    0.5,
			GroundPhi: 0.6,
			Kuc:       3.16e-5,
		},
		Engine: Engine{
			Count:  2,
			Thrust: 104.5e3,
			K1:     -0.75,
			K2:     0.3,
			TSFC:   1.02e-5,
			KC:     0.4,
		},
	},
}

var runways = map[string]Runway{
	"default": {TORA: 1800, Friction: 0.025},
	"short":   {TORA: 1400, Friction: 0.025},
	"high":    {TORA: 3000, Elevation: 1655, Friction: 0.025},
	"wet":     {TORA: 2500, Friction: 0.05},
}

// Get returns a private copy of the airplane registered under id.
func Get(id string) (*Airplane, error) {
	ap, ok := airplanes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAirplane, id)
	}
	return deep.MustCopy(ap), nil
}

// List returns the registered airplane identifiers in sorted order.
func List() []string {
	ids := make([]string, 0, len(airplanes))
	for id := range airplanes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func GetRunway(name string) (Runway, error) {
	rw, ok := runways[name]
	if !ok {
		return Runway{}, fmt.Errorf("aircraft: unknown runway %q", name)
	}
	return rw, nil
}

func ListRunways() []string {
	names := make([]string, 0, len(runways))
	for name := range runways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

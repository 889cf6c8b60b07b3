package aero

import (
	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

// Install adds the coefficient, dynamic pressure and force components to g
// in data-flow order. The group must supply alpha, de, flap_angle, rho, tas,
// and for FreeAir q; grav and mass when gear is set. opts apply to every
// component, so a single Alias renames a variable throughout.
func Install(g *dynamo.Group, ap *aircraft.Airplane, model CoefficientModel, gear bool, opts ...dynamo.AddOption) {
	g.Add("cl", model.Lift(), opts...)
	g.Add("cm", model.Moment(), opts...)
	g.Add("cd", NewDragCoeff(ap, model.Mode(), gear), opts...)
	g.Add("dyn_press", NewDynamicPressure(), opts...)
	g.Add("lift_drag_moment", NewForces(ap), opts...)
}

// NewGroup returns a built, standalone aerodynamics group.
func NewGroup(ap *aircraft.Airplane, model CoefficientModel, gear bool) (*dynamo.Group, error) {
	g := dynamo.NewGroup("aero")
	Install(g, ap, model, gear)
	if err := g.Build(); err != nil {
		return nil, err
	}
	return g, nil
}

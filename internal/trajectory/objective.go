package trajectory

import (
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/phase"
)

// ObjectiveName is the objective variable; it is evaluated at the initial
// node of the ground roll.
const ObjectiveName = "obj"

// Gradient holds the constant partials of the objective.
type Gradient struct {
	X    float64
	Mass float64
}

// Objective returns obj = x - mass at the first ground roll node. Minimising
// it trades runway used against mass.
func (t *Trajectory) Objective(sol *Solution) (float64, Gradient, error) {
	ps := sol.Phase(phase.GroundRoll)
	if ps == nil {
		return 0, Gradient{}, &dynamo.EvalError{Phase: phase.GroundRoll.String(), Node: -1, Err: dynamo.ErrMissingInput}
	}
	x, ok := ps.Initial("x")
	if !ok {
		return 0, Gradient{}, &dynamo.EvalError{Phase: ps.Kind.String(), Node: 0, Variable: "x", Err: dynamo.ErrMissingInput}
	}
	m, ok := ps.Initial("mass")
	if !ok {
		return 0, Gradient{}, &dynamo.EvalError{Phase: ps.Kind.String(), Node: 0, Variable: "mass", Err: dynamo.ErrMissingInput}
	}
	return x - m, Gradient{X: 1, Mass: -1}, nil
}

// ObjectiveComp exposes the objective as a component for optimizers that
// consume the component contract directly.
type ObjectiveComp struct {
	meta dynamo.Meta
}

func NewObjectiveComp() *ObjectiveComp {
	c := &ObjectiveComp{meta: dynamo.Meta{Name: "obj_cmp"}}
	c.meta.AddInput("x", "m", "Position")
	c.meta.AddInput("mass", "kg", "Airplane mass")
	c.meta.AddOutput(ObjectiveName, "", "Objective")
	c.meta.Declare(ObjectiveName, "x", "mass")
	return c
}

func (c *ObjectiveComp) Meta() *dynamo.Meta { return &c.meta }

func (c *ObjectiveComp) Compute(in dynamo.Inputs, out dynamo.Outputs) error {
	x, m := in["x"], in["mass"]
	for i := range out[ObjectiveName] {
		out[ObjectiveName][i] = x.At(i) - m.At(i)
	}
	return nil
}

func (c *ObjectiveComp) ComputePartials(in dynamo.Inputs, p dynamo.Partials) error {
	dx, dm := p.Get(ObjectiveName, "x"), p.Get(ObjectiveName, "mass")
	for i := range dx {
		dx[i] = 1
		dm[i] = -1
	}
	return nil
}

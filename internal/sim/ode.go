package sim

import (
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/phase"
)

// phaseODE presents one phase as x' = f(x, u, t) over its schema states.
type phaseODE struct {
	p      *phase.Phase
	states []string
	params dynamo.Inputs
}

func newPhaseODE(p *phase.Phase, params dynamo.Inputs) *phaseODE {
	o := &phaseODE{p: p, params: params}
	for _, st := range p.Schema.States {
		o.states = append(o.states, st.Name)
	}
	return o
}

func (o *phaseODE) StateDim() int   { return len(o.states) }
func (o *phaseODE) ControlDim() int { return len(o.p.Schema.Controls) }

func (o *phaseODE) evaluate(x State, u Control, t float64) (*phase.Evaluation, error) {
	in := make(dynamo.Inputs, len(o.params)+len(x)+len(u))
	for k, v := range o.params {
		in[k] = v
	}
	for i, name := range o.states {
		in[name] = dynamo.Vector{x[i]}
	}
	for i, c := range o.p.Schema.Controls {
		in[c.Name] = dynamo.Vector{u[i]}
	}
	return o.p.Evaluate(phase.NodeValues{Time: dynamo.Vector{t}, Values: in}, false)
}

func (o *phaseODE) Derivative(x State, u Control, t float64) (State, error) {
	ev, err := o.evaluate(x, u, t)
	if err != nil {
		return nil, err
	}
	dx := make(State, len(o.states))
	for i, name := range o.states {
		dx[i] = ev.Rates[name][0]
	}
	return dx, nil
}

// snapshot exposes the shared parameters and the states of x at t.
func (o *phaseODE) snapshot(x State, t float64) *Snapshot {
	s := &Snapshot{Phase: o.p.Kind(), T: t, Values: make(map[string]float64, 32)}
	for name, v := range o.params {
		if len(v) == 1 {
			s.Values[name] = v[0]
		}
	}
	for i, name := range o.states {
		s.Values[name] = x[i]
	}
	return s
}

// fill adds the control and every evaluated variable to s.
func fill(s *Snapshot, ev *phase.Evaluation) {
	for name, v := range ev.Values {
		if len(v) > 0 {
			s.Values[name] = v[0]
		}
	}
}

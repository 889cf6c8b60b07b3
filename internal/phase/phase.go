package phase

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/takeoff/internal/aero"
	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/atmosphere"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/eom"
	"github.com/san-kum/takeoff/internal/propulsion"
)

// minChunk is the smallest node range evaluated on its own goroutine.
const minChunk = 64

// Phase couples a schema with the ODE group that supplies its state rates
// and constraint values.
type Phase struct {
	Schema Schema

	group *dynamo.Group
	wrt   []string
}

// New declares kind and wires its ODE. Wiring and bound errors are
// reported as *dynamo.ConfigError before any evaluation.
func New(k Kind, ap *aircraft.Airplane, rw aircraft.Runway, o Options) (*Phase, error) {
	s := SchemaFor(k, ap, rw, o)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g, err := buildODE(k, ap, o)
	if err != nil {
		return nil, err
	}
	p := &Phase{Schema: s, group: g}
	if err := p.check(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Phase) Kind() Kind     { return p.Schema.Kind }
func (p *Phase) String() string { return p.Schema.Kind.String() }

// buildODE assembles atmosphere, aerodynamics, propulsion and the phase EOM
// in data-flow order.
func buildODE(k Kind, ap *aircraft.Airplane, o Options) (*dynamo.Group, error) {
	g := dynamo.NewGroup(k.String())
	prop, err := propulsion.New(ap, o.Condition)
	if err != nil {
		return nil, err
	}
	loads := []dynamo.AddOption{
		dynamo.Alias("lift", "L"),
		dynamo.Alias("drag", "D"),
		dynamo.Alias("moment", "M"),
	}
	// v is measured against the runway in every phase; the EOM take airspeed
	eomOpts := append([]dynamo.AddOption{dynamo.Alias("V", "tas")}, loads...)
	pres := dynamo.Alias("p_amb", "pres")

	g.Add("atmos", atmosphere.New())
	g.Add("tas_comp", eom.NewTrueAirspeed())
	switch k {
	case GroundRoll:
		aero.Install(g, ap, aero.NewCoefficientModel(ap, true), o.LandingGear)
		g.Add("prop", prop, pres)
		g.Add("initial_run_eom", eom.NewGroundRoll(ap), eomOpts...)
	case Rotation:
		g.Add("mlg_pos", eom.NewMainGearPosition(ap.LandingGear.MainX, ap.LandingGear.MainZ))
		aero.Install(g, ap, aero.NewCoefficientModel(ap, false), o.LandingGear, dynamo.Alias("alpha", "theta"))
		g.Add("prop", prop, pres)
		g.Add("rotation_eom", eom.NewRotation(ap), append(eomOpts, dynamo.Alias("alpha", "theta"))...)
	case Transition:
		g.Add("alpha_comp", eom.NewAlpha())
		aero.Install(g, ap, aero.NewCoefficientModel(ap, false), o.LandingGear)
		g.Add("prop", prop, pres)
		g.Add("transition_eom", eom.NewTransition(ap), eomOpts...)
	default:
		return nil, &dynamo.ConfigError{Phase: k.String(), Reason: "unknown phase kind"}
	}
	if err := g.Build(); err != nil {
		return nil, err
	}
	return g, nil
}

// check verifies every rate source and constrained output is produced and
// every ODE input is a state, control, parameter or fixed value.
func (p *Phase) check() error {
	s := &p.Schema
	cerr := func(v, reason string) error {
		return &dynamo.ConfigError{Phase: s.Kind.String(), Variable: v, Reason: reason}
	}
	for _, st := range s.States {
		if !p.group.Produces(st.Rate) {
			return cerr(st.Name, "rate source "+st.Rate+" is not computed by the ODE")
		}
	}
	for _, c := range append(append([]Constraint{}, s.Path...), s.Boundary...) {
		if !p.group.Produces(c.Name) && !s.Has(c.Name) {
			return cerr(c.Name, "constrained variable is neither an ODE output nor a state")
		}
	}
	known := make(map[string]bool)
	for _, name := range s.Parameters {
		known[name] = true
	}
	for name := range s.Fixed {
		known[name] = true
	}
	for _, in := range p.group.Inputs() {
		switch {
		case s.Has(in.Name):
			p.wrt = append(p.wrt, in.Name)
		case known[in.Name]:
		default:
			return cerr(in.Name, "ODE input is not supplied by the phase")
		}
	}
	return nil
}

// NodeValues carries the optimizer's current iterate for one phase: node
// times plus every state and control per node, and each shared parameter
// as a length-1 vector.
type NodeValues struct {
	Time   dynamo.Vector
	Values dynamo.Inputs
}

// Nodes returns the node count of the iterate.
func (nv NodeValues) Nodes() int {
	if len(nv.Time) > 0 {
		return len(nv.Time)
	}
	return nv.Values.Nodes()
}

// Evaluation is the ODE output of one phase at every node.
type Evaluation struct {
	Kind   Kind
	N      int
	Time   dynamo.Vector
	Values map[string]dynamo.Vector
	Rates  map[string]dynamo.Vector // keyed by state name

	// Sens[of][wrt] holds d(of)/d(wrt) per node for every rate source and
	// constrained output with respect to the states and controls it depends
	// on. Nil unless partials were requested.
	Sens map[string]map[string]dynamo.Vector

	schema *Schema
}

// Evaluate runs the ODE at every node.
func (p *Phase) Evaluate(nv NodeValues, withPartials bool) (*Evaluation, error) {
	return p.EvaluateContext(context.Background(), nv, withPartials)
}

// EvaluateContext is Evaluate with cancellation. Node ranges are evaluated
// concurrently; results do not depend on the split.
func (p *Phase) EvaluateContext(ctx context.Context, nv NodeValues, withPartials bool) (*Evaluation, error) {
	s := &p.Schema
	n := nv.Nodes()
	if n == 0 {
		return nil, &dynamo.EvalError{Phase: s.Kind.String(), Node: -1, Err: errors.New("no nodes")}
	}

	in := make(dynamo.Inputs, len(nv.Values)+len(s.Fixed))
	for _, st := range s.States {
		if err := p.put(in, nv, st.Name, n, false); err != nil {
			return nil, err
		}
	}
	for _, c := range s.Controls {
		if err := p.put(in, nv, c.Name, n, false); err != nil {
			return nil, err
		}
	}
	for _, name := range s.Parameters {
		if err := p.put(in, nv, name, n, true); err != nil {
			return nil, err
		}
	}
	for name, v := range s.Fixed {
		in[name] = dynamo.Fill(n, v)
	}

	var wrt []string
	if withPartials {
		wrt = p.wrt
		if wrt == nil {
			wrt = []string{}
		}
	}
	res, err := p.group.RunParallel(ctx, in, wrt, minChunk)
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{
		Kind:   s.Kind,
		N:      n,
		Time:   nv.Time,
		Values: make(map[string]dynamo.Vector, len(res.Values)+len(in)),
		Rates:  make(map[string]dynamo.Vector, len(s.States)),
		schema: s,
	}
	for name, v := range in {
		ev.Values[name] = v
	}
	for name, v := range res.Values {
		ev.Values[name] = v
	}
	for _, st := range s.States {
		ev.Rates[st.Name] = res.Values[st.Rate]
	}
	if withPartials {
		ev.Sens = make(map[string]map[string]dynamo.Vector)
		targets := make([]string, 0, len(s.States)+len(s.Path)+len(s.Boundary))
		for _, st := range s.States {
			targets = append(targets, st.Rate)
		}
		for _, c := range append(append([]Constraint{}, s.Path...), s.Boundary...) {
			targets = append(targets, c.Name)
		}
		for _, of := range targets {
			if s.Has(of) {
				ev.Sens[of] = map[string]dynamo.Vector{of: dynamo.Fill(n, 1)}
				continue
			}
			for _, w := range p.wrt {
				if d := res.Total(of, w); d != nil {
					if ev.Sens[of] == nil {
						ev.Sens[of] = make(map[string]dynamo.Vector)
					}
					ev.Sens[of][w] = d
				}
			}
		}
	}
	return ev, nil
}

func (p *Phase) put(in dynamo.Inputs, nv NodeValues, name string, n int, scalar bool) error {
	v, ok := nv.Values[name]
	phase := p.Schema.Kind.String()
	if !ok {
		return &dynamo.EvalError{Phase: phase, Node: -1, Variable: name, Err: dynamo.ErrMissingInput}
	}
	switch {
	case scalar && len(v) != 1:
		return &dynamo.EvalError{Phase: phase, Node: -1, Variable: name, Value: float64(len(v)), Err: dynamo.ErrDimensionMismatch}
	case !scalar && len(v) == 1:
		v = dynamo.Fill(n, v[0])
	case !scalar && len(v) != n:
		return &dynamo.EvalError{Phase: phase, Node: -1, Variable: name, Value: float64(len(v)), Err: dynamo.ErrDimensionMismatch}
	}
	in[name] = v
	return nil
}

// Value returns variable name at node i.
func (e *Evaluation) Value(name string, i int) (float64, error) {
	v, ok := e.Values[name]
	if !ok {
		return 0, fmt.Errorf("%s: no variable %q", e.Kind, name)
	}
	return v.At(i), nil
}

// Boundary reads the value of c at the node its location selects.
func (e *Evaluation) Boundary(c Constraint) (float64, error) {
	i := 0
	if c.Loc == LocFinal {
		i = e.N - 1
	}
	return e.Value(c.Name, i)
}

// PathViolation returns the largest violation of c over every node and the
// node where it occurs.
func (e *Evaluation) PathViolation(c Constraint) (float64, int, error) {
	v, ok := e.Values[c.Name]
	if !ok {
		return 0, -1, fmt.Errorf("%s: no variable %q", e.Kind, c.Name)
	}
	worst, at := 0.0, -1
	for i := 0; i < e.N; i++ {
		if d := c.Bounds.Violation(v.At(i)); d > worst {
			worst, at = d, i
		}
	}
	return worst, at, nil
}

// CheckPartials compares each ODE component's declared partials with
// central differences at the nodes of ev.
func (p *Phase) CheckPartials(ev *Evaluation, opts dynamo.CheckOptions) ([]dynamo.MemberCheck, error) {
	return p.group.CheckMembers(ev.Values, opts)
}

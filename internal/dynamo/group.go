package dynamo

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// AddOption customises how a component is wired into a Group.
type AddOption func(*member)

// Alias connects the component's local variable to a differently named
// group variable.
func Alias(local, global string) AddOption {
	return func(m *member) { m.alias[local] = global }
}

type member struct {
	name  string
	c     Differentiable
	meta  *Meta
	alias map[string]string
}

func (m *member) global(local string) string {
	if g, ok := m.alias[local]; ok {
		return g
	}
	return local
}

// Group evaluates components in the order they were added. A variable is
// either produced by exactly one member or supplied as an external input.
type Group struct {
	Name string

	members  []*member
	vars     map[string]Var
	producer map[string]int
	inputs   []Var
	err      error
	built    bool
}

func NewGroup(name string) *Group {
	return &Group{
		Name:     name,
		vars:     make(map[string]Var),
		producer: make(map[string]int),
	}
}

// Add appends a component. Components without a derivative provider are
// rejected; wrap them with WithFD first. Errors are reported by Build.
func (g *Group) Add(name string, c Component, opts ...AddOption) {
	if g.err != nil {
		return
	}
	d, ok := c.(Differentiable)
	if !ok {
		g.err = &ConfigError{Phase: g.Name, Component: name, Reason: ErrNoPartials.Error()}
		return
	}
	meta := c.Meta()
	if err := meta.Validate(); err != nil {
		g.err = err
		return
	}
	m := &member{name: name, c: d, meta: meta, alias: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}

	for _, v := range meta.Inputs {
		gv := m.global(v.Name)
		known, ok := g.vars[gv]
		if !ok {
			v.Name = gv
			g.vars[gv] = v
			g.inputs = append(g.inputs, v)
			continue
		}
		if v.Scalar && !known.Scalar {
			g.err = &ConfigError{Phase: g.Name, Component: name, Variable: gv, Reason: "scalar input wired to node-shaped variable"}
			return
		}
	}
	for _, v := range meta.Outputs {
		gv := m.global(v.Name)
		if prev, ok := g.producer[gv]; ok {
			g.err = &ConfigError{Phase: g.Name, Component: name, Variable: gv, Reason: "already produced by " + g.members[prev].name}
			return
		}
		if _, ok := g.vars[gv]; ok {
			g.err = &ConfigError{Phase: g.Name, Component: name, Variable: gv, Reason: "produced after it is consumed"}
			return
		}
		v.Name = gv
		g.vars[gv] = v
		g.producer[gv] = len(g.members)
	}
	g.members = append(g.members, m)
}

// Build reports the first wiring error. A Group must be built before use.
func (g *Group) Build() error {
	if g.err != nil {
		return g.err
	}
	if len(g.members) == 0 {
		return &ConfigError{Phase: g.Name, Reason: "group has no components"}
	}
	g.built = true
	return nil
}

// Inputs returns the variables the group expects from its caller.
func (g *Group) Inputs() []Var {
	return append([]Var(nil), g.inputs...)
}

// Var returns the metadata of a group variable.
func (g *Group) Var(name string) (Var, bool) {
	v, ok := g.vars[name]
	return v, ok
}

// Produces reports whether name is an output of some member.
func (g *Group) Produces(name string) bool {
	_, ok := g.producer[name]
	return ok
}

// Result holds every group variable and, after Linearize, the totals
// Totals[of][wrt] of each variable with respect to the requested inputs.
type Result struct {
	N      int
	Values map[string]Vector
	Totals map[string]map[string]Vector
}

// Total returns d(of)/d(wrt) per node, or nil if of does not depend on wrt.
func (r *Result) Total(of, wrt string) Vector {
	if r.Totals == nil {
		return nil
	}
	return r.Totals[of][wrt]
}

// Run evaluates every member at the supplied nodes.
func (g *Group) Run(in Inputs) (*Result, error) {
	return g.run(in, nil)
}

// Linearize evaluates the group and accumulates the total derivative of every
// variable with respect to each external input in wrt.
func (g *Group) Linearize(in Inputs, wrt []string) (*Result, error) {
	if wrt == nil {
		wrt = []string{}
	}
	return g.run(in, wrt)
}

func (g *Group) run(in Inputs, wrt []string) (*Result, error) {
	if !g.built {
		if err := g.Build(); err != nil {
			return nil, err
		}
	}
	n := in.Nodes()
	if n == 0 {
		n = 1
	}

	values := make(map[string]Vector, len(g.vars))
	for _, v := range g.inputs {
		x, ok := in[v.Name]
		if !ok {
			return nil, &EvalError{Phase: g.Name, Node: -1, Variable: v.Name, Err: ErrMissingInput}
		}
		switch {
		case v.Scalar && len(x) != 1:
			return nil, &EvalError{Phase: g.Name, Node: -1, Variable: v.Name, Value: float64(len(x)), Err: ErrDimensionMismatch}
		case !v.Scalar && len(x) == 1 && n > 1:
			x = Fill(n, x[0])
		case !v.Scalar && len(x) != n:
			return nil, &EvalError{Phase: g.Name, Node: -1, Variable: v.Name, Value: float64(len(x)), Err: ErrDimensionMismatch}
		}
		values[v.Name] = x
	}

	var totals map[string]map[string]Vector
	if wrt != nil {
		totals = make(map[string]map[string]Vector)
		for _, w := range wrt {
			x, ok := values[w]
			if !ok {
				return nil, &ConfigError{Phase: g.Name, Variable: w, Reason: "derivative requested wrt a non-input variable"}
			}
			seed := Fill(len(x), 1)
			totals[w] = map[string]Vector{w: seed}
		}
	}

	for _, m := range g.members {
		local := make(Inputs, len(m.meta.Inputs))
		for _, v := range m.meta.Inputs {
			local[v.Name] = values[m.global(v.Name)]
		}
		out := NewOutputs(m.meta, n)
		if err := m.c.Compute(local, out); err != nil {
			return nil, g.wrap(m, err)
		}
		if err := checkFinite(m.name, out); err != nil {
			return nil, g.wrap(m, err)
		}
		for name, v := range out {
			values[m.global(name)] = v
		}

		if totals == nil {
			continue
		}
		p := NewPartials(m.meta, n)
		if err := m.c.ComputePartials(local, p); err != nil {
			return nil, g.wrap(m, err)
		}
		for _, pair := range m.meta.Partials {
			of, by := m.global(pair.Of), m.global(pair.Wrt)
			d := p[pair]
			for _, w := range wrt {
				dw, ok := totals[w][by]
				if !ok {
					continue
				}
				totals[w][of] = axpy(totals[w][of], d, dw)
			}
		}
	}

	res := &Result{N: n, Values: values}
	if totals != nil {
		res.Totals = make(map[string]map[string]Vector)
		for w, byVar := range totals {
			for of, d := range byVar {
				if res.Totals[of] == nil {
					res.Totals[of] = make(map[string]Vector)
				}
				res.Totals[of][w] = d
			}
		}
	}
	return res, nil
}

func (g *Group) wrap(m *member, err error) error {
	var ee *EvalError
	if errors.As(err, &ee) {
		cp := *ee
		if cp.Phase == "" {
			cp.Phase = g.Name
		}
		if cp.Component == "" {
			cp.Component = m.name
		}
		cp.Variable = m.global(cp.Variable)
		return &cp
	}
	return &EvalError{Phase: g.Name, Component: m.name, Node: -1, Err: err}
}

// axpy returns dst + a⊙b with scalar broadcasting.
func axpy(dst, a, b Vector) Vector {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if len(dst) < n {
		grown := make(Vector, n)
		for i := range grown {
			if len(dst) > 0 {
				grown[i] = dst.At(i)
			}
		}
		dst = grown
	}
	for i := 0; i < n; i++ {
		dst[i] += a.At(i) * b.At(i)
	}
	return dst
}

// RunParallel splits the node range into chunks of at least minChunk nodes
// and evaluates them concurrently. Results equal Run/Linearize on the full
// range because components never couple nodes.
func (g *Group) RunParallel(ctx context.Context, in Inputs, wrt []string, minChunk int) (*Result, error) {
	n := in.Nodes()
	var mu sync.Mutex
	chunks := make([]*Result, 0)
	bounds := make([][2]int, 0)
	err := ParallelNodes(ctx, n, minChunk, func(lo, hi int) error {
		part := sliceInputs(g, in, lo, hi)
		var r *Result
		var err error
		if wrt == nil {
			r, err = g.Run(part)
		} else {
			r, err = g.Linearize(part, wrt)
		}
		if err != nil {
			var ee *EvalError
			if errors.As(err, &ee) && ee.Node >= 0 {
				cp := *ee
				cp.Node += lo
				return &cp
			}
			return err
		}
		mu.Lock()
		chunks = append(chunks, r)
		bounds = append(bounds, [2]int{lo, hi})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(chunks))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return bounds[idx[a]][0] < bounds[idx[b]][0] })
	ordered := make([]*Result, len(chunks))
	for i, k := range idx {
		ordered[i] = chunks[k]
	}
	return g.merge(ordered, n), nil
}

func sliceInputs(g *Group, in Inputs, lo, hi int) Inputs {
	part := make(Inputs, len(in))
	for name, v := range in {
		meta, ok := g.vars[name]
		if (ok && meta.Scalar) || len(v) == 1 {
			part[name] = v
			continue
		}
		part[name] = v[lo:hi]
	}
	return part
}

func (g *Group) merge(parts []*Result, n int) *Result {
	res := &Result{N: n, Values: make(map[string]Vector)}
	cat := func(name string, pick func(*Result) Vector) Vector {
		if v, ok := g.vars[name]; ok && v.Scalar {
			return pick(parts[0])
		}
		var all Vector
		for _, p := range parts {
			all = append(all, pick(p)...)
		}
		return all
	}
	for name := range parts[0].Values {
		res.Values[name] = cat(name, func(r *Result) Vector { return r.Values[name] })
	}
	if parts[0].Totals != nil {
		res.Totals = make(map[string]map[string]Vector)
		for of, byWrt := range parts[0].Totals {
			res.Totals[of] = make(map[string]Vector)
			for w := range byWrt {
				res.Totals[of][w] = cat(of, func(r *Result) Vector { return r.Totals[of][w] })
			}
		}
	}
	return res
}

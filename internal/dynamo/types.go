package dynamo

import (
	"fmt"
	"math"
)

// Vector holds the values of one variable at every evaluation node. Scalars
// shared by all nodes are stored with length 1 and broadcast by At.
type Vector []float64

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// At returns the value at node i, broadcasting scalars.
func (v Vector) At(i int) float64 {
	if len(v) == 1 {
		return v[0]
	}
	return v[i]
}

// MaxAbs returns the largest absolute entry, or 0 for an empty vector.
func (v Vector) MaxAbs() float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}

// Fill returns a vector of length n with every entry set to val.
func Fill(n int, val float64) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = val
	}
	return v
}

// Var declares one input or output of a component.
type Var struct {
	Name   string
	Units  string
	Desc   string
	Scalar bool
}

// Pair names one declared partial derivative d(Of)/d(Wrt).
type Pair struct {
	Of  string
	Wrt string
}

func (p Pair) String() string { return fmt.Sprintf("d(%s)/d(%s)", p.Of, p.Wrt) }

// Meta declares a component's interface and the sparsity of its derivatives.
type Meta struct {
	Name     string
	Inputs   []Var
	Outputs  []Var
	Partials []Pair
}

func (m *Meta) AddInput(name, units, desc string) {
	m.Inputs = append(m.Inputs, Var{Name: name, Units: units, Desc: desc})
}

func (m *Meta) AddScalarInput(name, units, desc string) {
	m.Inputs = append(m.Inputs, Var{Name: name, Units: units, Desc: desc, Scalar: true})
}

func (m *Meta) AddOutput(name, units, desc string) {
	m.Outputs = append(m.Outputs, Var{Name: name, Units: units, Desc: desc})
}

func (m *Meta) AddScalarOutput(name, units, desc string) {
	m.Outputs = append(m.Outputs, Var{Name: name, Units: units, Desc: desc, Scalar: true})
}

// Declare records that output of may depend on every input in wrt.
func (m *Meta) Declare(of string, wrt ...string) {
	for _, w := range wrt {
		m.Partials = append(m.Partials, Pair{Of: of, Wrt: w})
	}
}

func (m *Meta) Input(name string) (Var, bool) {
	for _, v := range m.Inputs {
		if v.Name == name {
			return v, true
		}
	}
	return Var{}, false
}

func (m *Meta) Output(name string) (Var, bool) {
	for _, v := range m.Outputs {
		if v.Name == name {
			return v, true
		}
	}
	return Var{}, false
}

// Validate checks names are unique and every partial refers to a declared
// output and input. A scalar output may not depend on a node-shaped input.
func (m *Meta) Validate() error {
	seen := make(map[string]bool)
	for _, v := range append(append([]Var{}, m.Inputs...), m.Outputs...) {
		if v.Name == "" {
			return &ConfigError{Component: m.Name, Reason: "empty variable name"}
		}
		if seen[v.Name] {
			return &ConfigError{Component: m.Name, Variable: v.Name, Reason: "declared twice"}
		}
		seen[v.Name] = true
	}
	pairs := make(map[Pair]bool)
	for _, p := range m.Partials {
		out, ok := m.Output(p.Of)
		if !ok {
			return &ConfigError{Component: m.Name, Variable: p.Of, Reason: "partial of undeclared output"}
		}
		in, ok := m.Input(p.Wrt)
		if !ok {
			return &ConfigError{Component: m.Name, Variable: p.Wrt, Reason: "partial wrt undeclared input"}
		}
		if out.Scalar && !in.Scalar {
			return &ConfigError{Component: m.Name, Variable: p.Of, Reason: "scalar output cannot depend on node input " + p.Wrt}
		}
		if pairs[p] {
			return &ConfigError{Component: m.Name, Variable: p.Of, Reason: "partial declared twice: " + p.String()}
		}
		pairs[p] = true
	}
	return nil
}

// Inputs maps input names to node vectors.
type Inputs map[string]Vector

// Nodes returns the number of evaluation nodes implied by the inputs.
func (in Inputs) Nodes() int {
	n := 0
	for _, v := range in {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// Outputs maps output names to node vectors.
type Outputs map[string]Vector

// Partials maps declared pairs to node-wise derivatives: entry i holds the
// derivative of output node i with respect to input node i (or to the scalar).
type Partials map[Pair]Vector

func (p Partials) Get(of, wrt string) Vector { return p[Pair{Of: of, Wrt: wrt}] }

// Component is a pure node-wise evaluation.
type Component interface {
	Meta() *Meta
	Compute(in Inputs, out Outputs) error
}

// Differentiable is a component that publishes the partial of every declared
// output with respect to every input it depends on.
type Differentiable interface {
	Component
	ComputePartials(in Inputs, p Partials) error
}

// NewOutputs allocates the outputs of m for n nodes.
func NewOutputs(m *Meta, n int) Outputs {
	out := make(Outputs, len(m.Outputs))
	for _, v := range m.Outputs {
		if v.Scalar {
			out[v.Name] = make(Vector, 1)
		} else {
			out[v.Name] = make(Vector, n)
		}
	}
	return out
}

// NewPartials allocates every declared pair of m for n nodes.
func NewPartials(m *Meta, n int) Partials {
	p := make(Partials, len(m.Partials))
	for _, pair := range m.Partials {
		out, _ := m.Output(pair.Of)
		in, _ := m.Input(pair.Wrt)
		if out.Scalar && in.Scalar {
			p[pair] = make(Vector, 1)
		} else {
			p[pair] = make(Vector, n)
		}
	}
	return p
}

// Evaluate checks the inputs against c's declaration, runs it, and rejects
// non-finite outputs.
func Evaluate(c Component, in Inputs) (Outputs, error) {
	m := c.Meta()
	n, err := checkInputs(m, in)
	if err != nil {
		return nil, err
	}
	out := NewOutputs(m, n)
	if err := c.Compute(in, out); err != nil {
		return nil, err
	}
	if err := checkFinite(m.Name, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Linearize returns the declared partials of c at in.
func Linearize(c Differentiable, in Inputs) (Partials, error) {
	m := c.Meta()
	n, err := checkInputs(m, in)
	if err != nil {
		return nil, err
	}
	p := NewPartials(m, n)
	if err := c.ComputePartials(in, p); err != nil {
		return nil, err
	}
	for pair, v := range p {
		for i, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, &EvalError{Component: m.Name, Node: i, Variable: pair.String(), Value: x, Err: ErrNonFinite}
			}
		}
	}
	return p, nil
}

func checkInputs(m *Meta, in Inputs) (int, error) {
	n := in.Nodes()
	if n == 0 {
		n = 1
	}
	for _, v := range m.Inputs {
		x, ok := in[v.Name]
		if !ok {
			return 0, &EvalError{Component: m.Name, Node: -1, Variable: v.Name, Err: ErrMissingInput}
		}
		if v.Scalar && len(x) != 1 {
			return 0, &EvalError{Component: m.Name, Node: -1, Variable: v.Name, Value: float64(len(x)), Err: ErrDimensionMismatch}
		}
		if !v.Scalar && len(x) != n && len(x) != 1 {
			return 0, &EvalError{Component: m.Name, Node: -1, Variable: v.Name, Value: float64(len(x)), Err: ErrDimensionMismatch}
		}
	}
	return n, nil
}

func checkFinite(component string, out Outputs) error {
	for name, v := range out {
		for i, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return &EvalError{Component: component, Node: i, Variable: name, Value: x, Err: ErrNonFinite}
			}
		}
	}
	return nil
}

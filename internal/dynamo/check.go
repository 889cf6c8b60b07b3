package dynamo

import (
	"math"
	"sort"
)

// CheckOptions sets the comparison tolerance of CheckPartials. A declared
// partial passes when |analytic - fd| <= Atol + Rtol*max(|analytic|, |fd|)
// plus the round-off floor of the difference quotient.
type CheckOptions struct {
	Rtol float64
	Atol float64
}

func DefaultCheckOptions() CheckOptions {
	return CheckOptions{Rtol: 1e-5, Atol: 1e-10}
}

// PartialCheck summarises one (of, wrt) pair over every node.
type PartialCheck struct {
	Pair      Pair
	Declared  bool
	MaxAbsErr float64
	MaxRelErr float64
	WorstNode int
	Analytic  float64
	FD        float64
	OK        bool
}

// CheckPartials compares the partials c declares with central differences of
// Compute over every (output, input) pair. Undeclared pairs must have a
// numerically zero derivative.
func CheckPartials(c Differentiable, in Inputs, opts CheckOptions) ([]PartialCheck, error) {
	m := c.Meta()
	n, err := checkInputs(m, in)
	if err != nil {
		return nil, err
	}

	full := make(Inputs, len(in))
	for k, v := range in {
		full[k] = v
	}
	for _, v := range m.Inputs {
		if !v.Scalar && len(full[v.Name]) == 1 && n > 1 {
			full[v.Name] = Fill(n, full[v.Name][0])
		}
	}

	analytic, err := Linearize(c, full)
	if err != nil {
		return nil, err
	}

	var all []Pair
	for _, out := range m.Outputs {
		for _, inp := range m.Inputs {
			if out.Scalar && !inp.Scalar {
				continue
			}
			all = append(all, Pair{Of: out.Name, Wrt: inp.Name})
		}
	}
	numeric := make(Partials, len(all))
	for _, pair := range all {
		out, _ := m.Output(pair.Of)
		inp, _ := m.Input(pair.Wrt)
		if out.Scalar && inp.Scalar {
			numeric[pair] = make(Vector, 1)
		} else {
			numeric[pair] = make(Vector, n)
		}
	}
	if err := centralDiff(c, full, all, numeric); err != nil {
		return nil, err
	}

	base, err := Evaluate(c, full)
	if err != nil {
		return nil, err
	}

	checks := make([]PartialCheck, 0, len(all))
	for _, pair := range all {
		a, declared := analytic[pair]
		f := numeric[pair]
		h := relStep * math.Max(1, full[pair.Wrt].MaxAbs())
		floor := 64 * eps * base[pair.Of].MaxAbs() / h

		chk := PartialCheck{Pair: pair, Declared: declared, OK: true, WorstNode: -1}
		for i := range f {
			av := 0.0
			if declared {
				av = a.At(i)
			}
			fv := f[i]
			diff := math.Abs(av - fv)
			scale := math.Max(math.Abs(av), math.Abs(fv))
			rel := 0.0
			if scale > 0 {
				rel = diff / scale
			}
			tol := opts.Atol + opts.Rtol*scale + floor
			if diff > tol {
				chk.OK = false
			}
			if diff >= chk.MaxAbsErr {
				chk.MaxAbsErr = diff
				chk.MaxRelErr = rel
				chk.WorstNode = i
				chk.Analytic = av
				chk.FD = fv
			}
		}
		if !declared && chk.MaxAbsErr == 0 {
			continue
		}
		checks = append(checks, chk)
	}

	sort.Slice(checks, func(i, j int) bool {
		if checks[i].Pair.Of != checks[j].Pair.Of {
			return checks[i].Pair.Of < checks[j].Pair.Of
		}
		return checks[i].Pair.Wrt < checks[j].Pair.Wrt
	})
	return checks, nil
}

const eps = 2.220446049250313e-16

// MemberCheck is the partial check of one group member.
type MemberCheck struct {
	Member string
	Checks []PartialCheck
}

func (mc MemberCheck) OK() bool {
	for _, c := range mc.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// CheckMembers runs CheckPartials on every member of g, feeding each the
// group variables in vals under its local names.
func (g *Group) CheckMembers(vals Inputs, opts CheckOptions) ([]MemberCheck, error) {
	out := make([]MemberCheck, 0, len(g.members))
	for _, m := range g.members {
		in := make(Inputs, len(m.meta.Inputs))
		for _, v := range m.meta.Inputs {
			x, ok := vals[m.global(v.Name)]
			if !ok {
				return nil, &EvalError{Phase: g.Name, Component: m.name, Node: -1, Variable: m.global(v.Name), Err: ErrMissingInput}
			}
			in[v.Name] = x
		}
		checks, err := CheckPartials(m.c, in, opts)
		if err != nil {
			return nil, g.wrap(m, err)
		}
		out = append(out, MemberCheck{Member: m.name, Checks: checks})
	}
	return out, nil
}

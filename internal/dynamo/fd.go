package dynamo

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// relStep scales the finite-difference step to the magnitude of the input.
const relStep = 1e-6

type fdComponent struct {
	Component
}

// WithFD wraps a pure component that has no hand-derived partials in a
// central-difference derivative provider. The wrapped component's declared
// pairs are the ones filled in.
func WithFD(c Component) Differentiable {
	if d, ok := c.(*fdComponent); ok {
		return d
	}
	return &fdComponent{Component: c}
}

func (f *fdComponent) ComputePartials(in Inputs, p Partials) error {
	return centralDiff(f.Component, in, f.Meta().Partials, p)
}

// centralDiff fills p for pairs by perturbing each wrt input with gonum's
// central formula. Node independence means only the diagonal (or, for a
// scalar input, the single column) of each Jacobian block is retained.
func centralDiff(c Component, in Inputs, pairs []Pair, p Partials) error {
	m := c.Meta()
	n := in.Nodes()
	if n == 0 {
		n = 1
	}

	byWrt := make(map[string][]string)
	var order []string
	for _, pair := range pairs {
		if _, ok := byWrt[pair.Wrt]; !ok {
			order = append(order, pair.Wrt)
		}
		byWrt[pair.Wrt] = append(byWrt[pair.Wrt], pair.Of)
	}

	for _, wrt := range order {
		ofs := byWrt[wrt]
		x0 := in[wrt]
		if inVar, _ := m.Input(wrt); !inVar.Scalar && len(x0) == 1 && n > 1 {
			x0 = Fill(n, x0[0])
		}

		offsets := make([]int, len(ofs))
		rows := 0
		for k, of := range ofs {
			offsets[k] = rows
			if v, _ := m.Output(of); v.Scalar {
				rows++
			} else {
				rows += n
			}
		}

		var evalErr error
		fn := func(y, x []float64) {
			if evalErr != nil {
				return
			}
			local := make(Inputs, len(in))
			for k, v := range in {
				local[k] = v
			}
			local[wrt] = Vector(x)
			out := NewOutputs(m, n)
			if err := c.Compute(local, out); err != nil {
				evalErr = err
				return
			}
			for k, of := range ofs {
				copy(y[offsets[k]:], out[of])
			}
		}

		jac := mat.NewDense(rows, len(x0), nil)
		fd.Jacobian(jac, fn, x0, &fd.JacobianSettings{
			Formula: fd.Central,
			Step:    relStep * math.Max(1, x0.MaxAbs()),
		})
		if evalErr != nil {
			return evalErr
		}

		for k, of := range ofs {
			dst := p[Pair{Of: of, Wrt: wrt}]
			for i := range dst {
				col := i
				if len(x0) == 1 {
					col = 0
				}
				dst[i] = jac.At(offsets[k]+i, col)
			}
		}
	}
	return nil
}

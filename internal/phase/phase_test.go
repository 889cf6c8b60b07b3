package phase

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

func setup(t *testing.T) (*aircraft.Airplane, aircraft.Runway) {
	t.Helper()
	ap, err := aircraft.Get("b734")
	if err != nil {
		t.Fatal(err)
	}
	rw, err := aircraft.GetRunway("default")
	if err != nil {
		t.Fatal(err)
	}
	return ap, rw
}

func params() dynamo.Inputs {
	return dynamo.Inputs{
		"elevation":  {0},
		"rw_slope":   {0},
		"flap_angle": {5 * math.Pi / 180},
		"Vw":         {0},
		"grav":       {9.80665},
		"mu":         {0.025},
	}
}

func iterate(k Kind) NodeValues {
	in := params()
	switch k {
	case GroundRoll:
		in["x"] = dynamo.Vector{0, 100, 400, 900}
		in["v"] = dynamo.Vector{1, 25, 45, 70}
		in["mass"] = dynamo.Vector{68000, 67980, 67950, 67900}
		in["de"] = dynamo.Vector{0, 0, 0, -0.2}
	case Rotation:
		in["x"] = dynamo.Vector{1100, 1200, 1300}
		in["h"] = dynamo.Vector{0, 0.1, 0.4}
		in["v"] = dynamo.Vector{72, 74, 77}
		in["mass"] = dynamo.Vector{67880, 67870, 67860}
		in["theta"] = dynamo.Vector{0, 0.06, 0.14}
		in["q"] = dynamo.Vector{0, 0.04, 0.06}
		in["de"] = dynamo.Vector{-0.35, -0.35, -0.3}
	case Transition:
		in["x"] = dynamo.Vector{1400, 1500, 1600}
		in["h"] = dynamo.Vector{0, 3, 9}
		in["v"] = dynamo.Vector{78, 80, 82}
		in["gam"] = dynamo.Vector{0, 0.04, 0.08}
		in["theta"] = dynamo.Vector{0.15, 0.18, 0.2}
		in["q"] = dynamo.Vector{0.05, 0.02, 0}
		in["mass"] = dynamo.Vector{67850, 67840, 67830}
		in["de"] = dynamo.Vector{-0.2, -0.15, -0.1}
	}
	return NodeValues{Values: in}
}

func TestKindOrder(t *testing.T) {
	k := GroundRoll
	var seen []Kind
	for {
		seen = append(seen, k)
		next, ok := k.Next()
		if !ok {
			break
		}
		k = next
	}
	if len(seen) != 3 || seen[0] != GroundRoll || seen[1] != Rotation || seen[2] != Transition {
		t.Errorf("unexpected order %v", seen)
	}
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%s) = %v, %v", k, got, err)
		}
	}
}

func TestSchemas(t *testing.T) {
	ap, rw := setup(t)
	tests := []struct {
		kind     Kind
		states   []string
		path     string
		boundary []string
	}{
		{GroundRoll, []string{"x", "v", "mass"}, "f_mg", []string{"f_ng"}},
		{Rotation, []string{"x", "h", "v", "mass", "theta", "q"}, "f_mg", []string{"f_mg", "x"}},
		{Transition, []string{"x", "h", "v", "gam", "theta", "q", "mass"}, "alpha", []string{"h"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			s := SchemaFor(tt.kind, ap, rw, DefaultOptions())
			if len(s.States) != len(tt.states) {
				t.Fatalf("got %d states, want %d", len(s.States), len(tt.states))
			}
			for i, name := range tt.states {
				if s.States[i].Name != name {
					t.Errorf("state %d got %s, want %s", i, s.States[i].Name, name)
				}
			}
			if len(s.Controls) != 1 || s.Controls[0].Name != "de" {
				t.Errorf("controls got %v", s.Controls)
			}
			if len(s.Path) != 1 || s.Path[0].Name != tt.path {
				t.Errorf("path constraints got %v", s.Path)
			}
			for i, name := range tt.boundary {
				if s.Boundary[i].Name != name || s.Boundary[i].Loc != LocFinal {
					t.Errorf("boundary %d got %+v", i, s.Boundary[i])
				}
			}
		})
	}

	s := SchemaFor(Rotation, ap, rw, DefaultOptions())
	if b := s.Boundary[1].Bounds; b.Upper != rw.TORA {
		t.Errorf("runway bound got %v, want %v", b.Upper, rw.TORA)
	}
	if b := s.Boundary[0].Bounds; b.Lower != 0 || b.Upper != 0.01 {
		t.Errorf("liftoff bound got %+v", b)
	}
}

func TestInconsistentBounds(t *testing.T) {
	ap, rw := setup(t)
	ap.Limits.DeMin, ap.Limits.DeMax = 0.2, -0.2
	_, err := New(Rotation, ap, rw, DefaultOptions())
	var ce *dynamo.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ce.Variable != "de" || ce.Phase != "rotation" {
		t.Errorf("unexpected error context %+v", ce)
	}
}

func TestEvaluateRates(t *testing.T) {
	ap, rw := setup(t)
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			p, err := New(k, ap, rw, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			nv := iterate(k)
			ev, err := p.Evaluate(nv, false)
			if err != nil {
				t.Fatal(err)
			}
			for _, st := range p.Schema.States {
				r := ev.Rates[st.Name]
				if len(r) != ev.N {
					t.Errorf("%s: rate has %d nodes, want %d", st.Name, len(r), ev.N)
				}
			}
			for i, md := range ev.Rates["mass"] {
				if md >= 0 {
					t.Errorf("node %d: mass rate %v should be negative", i, md)
				}
			}
			if ev.Sens != nil {
				t.Error("sensitivities computed without request")
			}
		})
	}
}

func TestGroundRollAlphaFixed(t *testing.T) {
	ap, rw := setup(t)
	p, err := New(GroundRoll, ap, rw, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	ev, err := p.Evaluate(iterate(GroundRoll), false)
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range ev.Values["alpha"] {
		if a != 0 {
			t.Errorf("node %d: alpha got %v, want 0", i, a)
		}
	}
	// before rotation the nose gear carries load
	if fng := ev.Values["f_ng"][0]; fng <= 0 {
		t.Errorf("f_ng at brake release got %v, want > 0", fng)
	}
}

// TestSensitivities compares the assembled totals with central differences
// of the whole phase ODE. Every rate and constrained output is checked
// against every state and control; a total the assembler did not publish
// counts as zero.
func TestSensitivities(t *testing.T) {
	ap, rw := setup(t)
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			p, err := New(k, ap, rw, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			nv := iterate(k)
			nv.Values["Vw"] = dynamo.Vector{3}
			ev, err := p.Evaluate(nv, true)
			if err != nil {
				t.Fatal(err)
			}

			var targets []string
			seen := make(map[string]bool)
			add := func(name string) {
				if !seen[name] && !p.Schema.Has(name) {
					seen[name] = true
					targets = append(targets, name)
				}
			}
			for _, st := range p.Schema.States {
				add(st.Rate)
			}
			for _, c := range append(append([]Constraint{}, p.Schema.Path...), p.Schema.Boundary...) {
				add(c.Name)
			}
			var wrts []string
			for _, st := range p.Schema.States {
				wrts = append(wrts, st.Name)
			}
			for _, c := range p.Schema.Controls {
				wrts = append(wrts, c.Name)
			}

			for _, of := range targets {
				for _, wrt := range wrts {
					got := ev.Sens[of][wrt]
					for i := 0; i < ev.N; i++ {
						fd := centralDiff(t, p, nv, of, wrt, i)
						total := 0.0
						if got != nil {
							total = got.At(i)
						}
						tol := 1e-5*math.Max(math.Abs(fd), math.Abs(total)) + 1e-6
						if math.Abs(total-fd) > tol {
							t.Errorf("d%s/d%s node %d: got %g, fd %g", of, wrt, i, total, fd)
						}
					}
				}
			}
		})
	}
}

func centralDiff(t *testing.T, p *Phase, nv NodeValues, of, wrt string, i int) float64 {
	t.Helper()
	h := 1e-6 * math.Max(1, math.Abs(nv.Values[wrt][i]))
	eval := func(delta float64) float64 {
		vals := make(dynamo.Inputs, len(nv.Values))
		for k, v := range nv.Values {
			vals[k] = v.Clone()
		}
		vals[wrt][i] += delta
		ev, err := p.Evaluate(NodeValues{Values: vals}, false)
		if err != nil {
			t.Fatal(err)
		}
		return ev.Values[of][i]
	}
	return (eval(h) - eval(-h)) / (2 * h)
}

func TestEvaluateMissingInput(t *testing.T) {
	ap, rw := setup(t)
	p, err := New(Transition, ap, rw, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	nv := iterate(Transition)
	delete(nv.Values, "gam")
	_, err = p.Evaluate(nv, false)
	var ee *dynamo.EvalError
	if !errors.As(err, &ee) || ee.Variable != "gam" || ee.Phase != "transition" {
		t.Errorf("expected missing gam error, got %v", err)
	}
}

func TestEvaluateZeroAirspeed(t *testing.T) {
	ap, rw := setup(t)
	p, err := New(Transition, ap, rw, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	nv := iterate(Transition)
	nv.Values["v"] = dynamo.Vector{78, 0, 82}
	_, err = p.Evaluate(nv, false)
	var ee *dynamo.EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EvalError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrDomain) || ee.Node != 1 || ee.Phase != "transition" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestBoundaryAndPath(t *testing.T) {
	ap, rw := setup(t)
	p, err := New(Rotation, ap, rw, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	ev, err := p.Evaluate(iterate(Rotation), false)
	if err != nil {
		t.Fatal(err)
	}
	x, err := ev.Boundary(p.Schema.Boundary[1])
	if err != nil {
		t.Fatal(err)
	}
	if x != 1300 {
		t.Errorf("final x got %v, want 1300", x)
	}
	viol, _, err := ev.PathViolation(p.Schema.Path[0])
	if err != nil {
		t.Fatal(err)
	}
	if viol != 0 {
		t.Errorf("f_mg path violation got %v, want 0", viol)
	}
}

func TestCheckPartials(t *testing.T) {
	ap, rw := setup(t)
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			p, err := New(k, ap, rw, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			ev, err := p.Evaluate(iterate(k), false)
			if err != nil {
				t.Fatal(err)
			}
			members, err := p.CheckPartials(ev, dynamo.DefaultCheckOptions())
			if err != nil {
				t.Fatalf("CheckPartials() error = %v", err)
			}
			if len(members) < 4 {
				t.Errorf("checked %d components, want at least 4", len(members))
			}
			for _, m := range members {
				for _, c := range m.Checks {
					if !c.OK {
						t.Errorf("%s %s: analytic %g, fd %g at node %d", m.Member, c.Pair, c.Analytic, c.FD, c.WorstNode)
					}
				}
			}
		})
	}
}

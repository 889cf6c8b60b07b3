package eom

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

func b734(t *testing.T) *aircraft.Airplane {
	t.Helper()
	ap, err := aircraft.Get("b734")
	if err != nil {
		t.Fatal(err)
	}
	return ap
}

// nodes spans representative operating points from brake release to climb.
func nodes() dynamo.Inputs {
	return dynamo.Inputs{
		"thrust":   {208000, 195000, 180000, 150000, 90000},
		"lift":     {0, 120000, 400000, 660000, 700000},
		"drag":     {0, 4000, 12000, 22000, 30000},
		"moment":   {-1.0e5, -4.0e4, 3.5e5, 2.0e5, -5.0e4},
		"V":        {0.5, 30, 72, 80, 95},
		"v":        {0, 27, 69, 77, 92},
		"mass":     {68000, 67950, 67900, 67850, 60000},
		"alpha":    {0, 0.02, 0.1, 0.16, -0.05},
		"gam":      {0, 0.01, 0.05, 0.1, 0.2},
		"theta":    {0, 0.02, 0.12, 0.2, 0.15},
		"q":        {0, 0.01, 0.05, 0.04, -0.02},
		"x_mlg":    {1.0, 0.98, 0.8, 0.67, 0.6},
		"rw_slope": {0.01},
		"grav":     {9.80665},
		"Vw":       {3},
		"mu":       {0.025},
	}
}

func pick(c dynamo.Component, in dynamo.Inputs) dynamo.Inputs {
	out := make(dynamo.Inputs)
	for _, v := range c.Meta().Inputs {
		out[v.Name] = in[v.Name]
	}
	return out
}

func assertPartials(t *testing.T, c dynamo.Differentiable, in dynamo.Inputs) {
	t.Helper()
	checks, err := dynamo.CheckPartials(c, pick(c, in), dynamo.DefaultCheckOptions())
	if err != nil {
		t.Fatalf("%s: %v", c.Meta().Name, err)
	}
	for _, chk := range checks {
		if !chk.Declared {
			t.Errorf("%s: undeclared dependency %s", c.Meta().Name, chk.Pair)
			continue
		}
		if !chk.OK {
			t.Errorf("%s %s: node %d analytic %g, fd %g (rel %g)",
				c.Meta().Name, chk.Pair, chk.WorstNode, chk.Analytic, chk.FD, chk.MaxRelErr)
		}
	}
}

func TestPartials(t *testing.T) {
	ap := b734(t)
	flat := nodes()
	flat["rw_slope"] = dynamo.Vector{0}

	tests := []struct {
		name string
		c    dynamo.Differentiable
	}{
		{"ground roll", NewGroundRoll(ap)},
		{"rotation", NewRotation(ap)},
		{"transition", NewTransition(ap)},
		{"main gear position", NewMainGearPosition(ap.LandingGear.MainX, ap.LandingGear.MainZ)},
		{"alpha", NewAlpha()},
		{"true airspeed", NewTrueAirspeed()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPartials(t, tt.c, nodes())
			assertPartials(t, tt.c, flat)
		})
	}
}

func TestGroundRollClosedForm(t *testing.T) {
	ap := b734(t)
	in := nodes()
	out, err := dynamo.Evaluate(NewGroundRoll(ap), pick(NewGroundRoll(ap), in))
	if err != nil {
		t.Fatal(err)
	}
	g, phi, mu, vw := in["grav"][0], in["rw_slope"][0], in["mu"][0], in["Vw"][0]
	for i := range in["mass"] {
		m, l := in["mass"][i], in["lift"][i]
		fmg := m*g*math.Cos(phi) - l
		frr := mu * fmg
		vdot := (in["thrust"][i]*math.Cos(in["alpha"][i]) - in["drag"][i] - frr - m*g*math.Sin(phi)) / m

		if math.Abs(out["f_mg"][i]-fmg) > 1e-9*math.Abs(fmg)+1e-9 {
			t.Errorf("node %d: f_mg got %v, want %v", i, out["f_mg"][i], fmg)
		}
		if math.Abs(out["f_rr"][i]-frr) > 1e-9*math.Abs(frr)+1e-9 {
			t.Errorf("node %d: f_rr got %v, want %v", i, out["f_rr"][i], frr)
		}
		if math.Abs(out["v_dot"][i]-vdot) > 1e-12 {
			t.Errorf("node %d: v_dot got %v, want %v", i, out["v_dot"][i], vdot)
		}
		if got, want := out["x_dot"][i], in["V"][i]-vw; got != want {
			t.Errorf("node %d: x_dot got %v, want %v", i, got, want)
		}
		if l <= m*g*math.Cos(phi) && out["f_mg"][i] < 0 {
			t.Errorf("node %d: f_mg negative while lift below weight", i)
		}
	}
}

func TestNoseGearBalance(t *testing.T) {
	ap := b734(t)
	e := NewGroundRoll(ap)
	in := pick(e, nodes())
	out, err := dynamo.Evaluate(e, in)
	if err != nil {
		t.Fatal(err)
	}
	a, b := ap.LandingGear.MainX, ap.LandingGear.NoseX
	for i := range out["f_ng"] {
		fng := out["f_ng"][i]
		main := out["f_mg"][i] - fng
		// moments about the CG vanish
		residual := fng*b - main*a + in["moment"][i]
		if math.Abs(residual) > 1e-6*math.Max(1, math.Abs(in["moment"][i])) {
			t.Errorf("node %d: moment residual %g", i, residual)
		}
	}
}

func TestRotationStartsFromRest(t *testing.T) {
	ap := b734(t)
	gr := NewGroundRoll(ap)
	rot := NewRotation(ap)

	// choose the moment that unloads the nose gear exactly
	in := nodes()
	m, g, l := in["mass"][2], in["grav"][0], in["lift"][2]
	fmg := m*g*math.Cos(in["rw_slope"][0]) - l
	in["moment"][2] = ap.LandingGear.MainX * fmg
	in["x_mlg"][2] = ap.LandingGear.MainX

	gout, err := dynamo.Evaluate(gr, pick(gr, in))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(gout["f_ng"][2]) > 1e-6 {
		t.Fatalf("f_ng got %v, want 0", gout["f_ng"][2])
	}
	rout, err := dynamo.Evaluate(rot, pick(rot, in))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rout["q_dot"][2]) > 1e-9 {
		t.Errorf("q_dot at rotation start got %v, want 0", rout["q_dot"][2])
	}
	if rout["v_dot"][2] != gout["v_dot"][2] {
		t.Errorf("v_dot differs across the handoff: %v vs %v", rout["v_dot"][2], gout["v_dot"][2])
	}
}

func TestMainGearPosition(t *testing.T) {
	c := NewMainGearPosition(1.0, 2.0)
	out, err := dynamo.Evaluate(c, dynamo.Inputs{"theta": {0, math.Pi / 2}})
	if err != nil {
		t.Fatal(err)
	}
	if got := out["x_mlg"][0]; got != 1.0 {
		t.Errorf("x_mlg(0) got %v, want 1", got)
	}
	if got := out["x_mlg"][1]; math.Abs(got+2.0) > 1e-12 {
		t.Errorf("x_mlg(pi/2) got %v, want -2", got)
	}
}

func TestTrueAirspeedAtRest(t *testing.T) {
	e := NewTrueAirspeed()
	out, err := dynamo.Evaluate(e, dynamo.Inputs{"v": {0, 10}, "Vw": {5}})
	if err != nil {
		t.Fatal(err)
	}
	if out["tas"][0] != 5 || out["tas"][1] != 15 {
		t.Errorf("tas got %v, want [5 15]", out["tas"])
	}
}

func TestTransitionLevelFlight(t *testing.T) {
	ap := b734(t)
	e := NewTransition(ap)
	in := pick(e, nodes())
	// lift balances weight, no thrust component: no flight path curvature
	for k, v := range map[string]float64{"alpha": 0, "gam": 0, "thrust": 100000, "lift": 60000 * 9.80665, "mass": 60000} {
		in[k] = dynamo.Vector{v}
	}
	in["V"] = dynamo.Vector{80}
	out, err := dynamo.Evaluate(e, in)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out["gam_dot"][0]) > 1e-12 {
		t.Errorf("gam_dot got %v, want 0", out["gam_dot"][0])
	}
	// Vw = 3 headwind
	if out["x_dot"][0] != 77 || out["h_dot"][0] != 0 {
		t.Errorf("x_dot, h_dot got %v, %v", out["x_dot"][0], out["h_dot"][0])
	}
}

func TestDomainErrors(t *testing.T) {
	ap := b734(t)
	tests := []struct {
		name     string
		c        dynamo.Differentiable
		variable string
		value    float64
	}{
		{"ground roll zero mass", NewGroundRoll(ap), "mass", 0},
		{"rotation negative mass", NewRotation(ap), "mass", -5},
		{"transition zero airspeed", NewTransition(ap), "V", 0},
		{"transition negative mass", NewTransition(ap), "mass", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pick(tt.c, nodes())
			in[tt.variable] = in[tt.variable].Clone()
			in[tt.variable][3] = tt.value

			_, err := dynamo.Evaluate(tt.c, in)
			var ee *dynamo.EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("expected EvalError, got %v", err)
			}
			if !errors.Is(err, dynamo.ErrDomain) || ee.Node != 3 || ee.Variable != tt.variable {
				t.Errorf("unexpected error %v", err)
			}
			if _, err := dynamo.Linearize(tt.c, in); !errors.Is(err, dynamo.ErrDomain) {
				t.Errorf("partials: expected domain error, got %v", err)
			}
		})
	}
}

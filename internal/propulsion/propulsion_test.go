package propulsion

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/atmosphere"
	"github.com/san-kum/takeoff/internal/dynamo"
)

func inputs(t *testing.T, h float64, tas ...float64) dynamo.Inputs {
	t.Helper()
	c, err := atmosphere.At(h)
	if err != nil {
		t.Fatal(err)
	}
	return dynamo.Inputs{"tas": tas, "p_amb": {c.Pres}, "sos": {c.Sos}}
}

func TestStaticThrust(t *testing.T) {
	ap, _ := aircraft.Get("b734")
	tests := []struct {
		cond Condition
		want float64
	}{
		{AEO, 2 * ap.Engine.Thrust},
		{OEI, ap.Engine.Thrust},
	}
	for _, tt := range tests {
		t.Run(tt.cond.String(), func(t *testing.T) {
			m, err := New(ap, tt.cond)
			if err != nil {
				t.Fatal(err)
			}
			out, err := dynamo.Evaluate(m, inputs(t, 0, 0))
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(out["thrust"][0]-tt.want) > 1e-6 {
				t.Errorf("thrust got %v, want %v", out["thrust"][0], tt.want)
			}
			wantMdot := -ap.Engine.TSFC * tt.want
			if math.Abs(out["m_dot"][0]-wantMdot) > 1e-9 {
				t.Errorf("m_dot got %v, want %v", out["m_dot"][0], wantMdot)
			}
		})
	}
}

func TestThrustLapse(t *testing.T) {
	ap, _ := aircraft.Get("b734")
	m, _ := New(ap, AEO)
	out, err := dynamo.Evaluate(m, inputs(t, 0, 0, 40, 80))
	if err != nil {
		t.Fatal(err)
	}
	th := out["thrust"]
	if !(th[0] > th[1] && th[1] > th[2]) {
		t.Errorf("thrust should fall with airspeed: %v", th)
	}
	for i, md := range out["m_dot"] {
		if md >= 0 {
			t.Errorf("node %d: m_dot should be negative, got %v", i, md)
		}
	}

	high, err := dynamo.Evaluate(m, inputs(t, 1655, 40))
	if err != nil {
		t.Fatal(err)
	}
	if high["thrust"][0] >= th[1] {
		t.Errorf("thrust at elevation should be lower: got %v vs %v", high["thrust"][0], th[1])
	}
}

func TestPartials(t *testing.T) {
	ap, _ := aircraft.Get("b734")
	for _, cond := range []Condition{AEO, OEI} {
		m, _ := New(ap, cond)
		for _, h := range []float64{0, 1655} {
			checks, err := dynamo.CheckPartials(m, inputs(t, h, 0, 30, 72, 95), dynamo.DefaultCheckOptions())
			if err != nil {
				t.Fatal(err)
			}
			for _, c := range checks {
				if !c.OK {
					t.Errorf("%s h=%v %s: %g vs %g", cond, h, c.Pair, c.Analytic, c.FD)
				}
			}
		}
	}
}

func TestNoRunningEngine(t *testing.T) {
	ap, _ := aircraft.Get("b734")
	ap.Engine.Count = 1
	_, err := New(ap, OEI)
	if !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    Condition
		wantErr bool
	}{
		{"aeo", AEO, false},
		{"OEI", OEI, false},
		{"", AEO, false},
		{"twin", AEO, true},
	}
	for _, tt := range tests {
		got, err := ParseCondition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCondition(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCondition(%q) got %v, want %v", tt.in, got, tt.want)
		}
	}
}

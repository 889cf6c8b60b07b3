package atmosphere

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/takeoff/internal/dynamo"
)

func TestSeaLevel(t *testing.T) {
	c, err := At(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(c.Rho-Rho0) > 1e-3 {
		t.Errorf("rho got %v, want %v", c.Rho, Rho0)
	}
	if math.Abs(c.Sos-340.294) > 0.01 {
		t.Errorf("sos got %v, want 340.294", c.Sos)
	}
	if c.Pres != P0 {
		t.Errorf("pres got %v, want %v", c.Pres, P0)
	}
}

func TestKnownAltitudes(t *testing.T) {
	tests := []struct {
		h    float64
		rho  float64
		pres float64
	}{
		{1000, 1.1117, 89876},
		{5000, 0.73612, 54020},
		{11000, 0.36392, 22632},
	}
	for _, tt := range tests {
		c, err := At(tt.h)
		if err != nil {
			t.Fatalf("h=%v: %v", tt.h, err)
		}
		if math.Abs(c.Rho-tt.rho)/tt.rho > 1e-3 {
			t.Errorf("h=%v: rho got %v, want %v", tt.h, c.Rho, tt.rho)
		}
		if math.Abs(c.Pres-tt.pres)/tt.pres > 1e-3 {
			t.Errorf("h=%v: pres got %v, want %v", tt.h, c.Pres, tt.pres)
		}
	}
}

func TestOutOfDomain(t *testing.T) {
	for _, h := range []float64{-1000, 12000, math.NaN()} {
		_, err := At(h)
		if !errors.Is(err, dynamo.ErrDomain) {
			t.Errorf("h=%v: expected domain error, got %v", h, err)
		}
	}
}

func TestPartials(t *testing.T) {
	for _, h := range []float64{-500, 0, 430, 2500, 9000} {
		checks, err := dynamo.CheckPartials(New(), dynamo.Inputs{"elevation": {h}}, dynamo.DefaultCheckOptions())
		if err != nil {
			t.Fatalf("h=%v: %v", h, err)
		}
		for _, c := range checks {
			if !c.OK {
				t.Errorf("h=%v %s: analytic %g, fd %g", h, c.Pair, c.Analytic, c.FD)
			}
		}
	}
}

package controllers

import (
	"math"
	"testing"

	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/sim"
)

func snap(k phase.Kind, t float64, vals map[string]float64) *sim.Snapshot {
	return &sim.Snapshot{Phase: k, T: t, Values: vals}
}

func TestHold(t *testing.T) {
	ctrl := NewHold(-0.1)
	if u := ctrl.Compute(snap(phase.GroundRoll, 0, nil)); u != -0.1 {
		t.Errorf("got %v, want -0.1", u)
	}
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	u := ctrl.Compute(snap(phase.Transition, 0, map[string]float64{"theta": 1}))
	if u >= 0 {
		t.Error("PID should output negative control for positive error")
	}
}

func TestPIDComputeIsPure(t *testing.T) {
	ctrl := NewPID(-2, -0.5, 0, 0.2)
	ctrl.Advance(snap(phase.Transition, 0, map[string]float64{"theta": 0.1}), 0)

	s := snap(phase.Transition, 1, map[string]float64{"theta": 0.15})
	a := ctrl.Compute(s)
	b := ctrl.Compute(s)
	if a != b {
		t.Errorf("repeated Compute differs: %v vs %v", a, b)
	}
}

func TestPIDBumpless(t *testing.T) {
	ctrl := NewPID(-2, -0.5, -1.5, 0.2)
	ctrl.Rate = "q"
	ctrl.MaxRate = 0.1

	vals := map[string]float64{"theta": 0.15, "q": 0.05}
	ctrl.Track(snap(phase.Rotation, 10, vals), -0.3)

	first := snap(phase.Transition, 10, vals)
	u := ctrl.Compute(first)
	if u != -0.3 {
		t.Fatalf("handover command got %v, want -0.3", u)
	}
	ctrl.Advance(first, u)

	// Same measurement one step later: only the slew-limited offset path
	// applies, so the command may move at most MaxRate*dt.
	next := ctrl.Compute(snap(phase.Transition, 10.5, map[string]float64{"theta": 0.1, "q": 0}))
	if math.Abs(next-u) > 0.05+1e-12 {
		t.Errorf("command moved %v in 0.5 s, limit 0.05", next-u)
	}
}

func TestPIDClamp(t *testing.T) {
	ctrl := NewPID(-100, 0, 0, 1)
	ctrl.Min, ctrl.Max = -0.4, 0.25
	if u := ctrl.Compute(snap(phase.Transition, 0, map[string]float64{"theta": 0})); u != -0.4 {
		t.Errorf("got %v, want -0.4", u)
	}
}

func TestRotationSchedule(t *testing.T) {
	deg := math.Pi / 180
	ctrl := NewRotationSchedule(72, -20*deg, 10*deg)

	tests := []struct {
		name string
		t, v float64
		want float64
	}{
		{"below VR", 20, 60, 0},
		{"at VR", 30, 72, 0},
		{"ramping", 31, 74, -10 * deg},
		{"saturated", 35, 80, -20 * deg},
	}
	for _, tt := range tests {
		s := snap(phase.GroundRoll, tt.t, map[string]float64{"v": tt.v})
		got := ctrl.Compute(s)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
		ctrl.Advance(s, got)
	}
	if !ctrl.Rotating() {
		t.Error("expected schedule to latch VR")
	}
}

func TestRotationScheduleHeadwind(t *testing.T) {
	ctrl := NewRotationSchedule(72, -0.3, 0.2)

	s := snap(phase.GroundRoll, 20, map[string]float64{"v": 64, "Vw": 10})
	ctrl.Advance(s, ctrl.Compute(s))
	if !ctrl.Rotating() {
		t.Error("airspeed v+Vw = 74 should reach VR")
	}

	ctrl.Reset()
	s = snap(phase.GroundRoll, 20, map[string]float64{"v": 64, "Vw": 10, "tas": 70})
	ctrl.Advance(s, ctrl.Compute(s))
	if ctrl.Rotating() {
		t.Error("computed tas below VR should not latch")
	}
}

func TestTakeoffHandover(t *testing.T) {
	ground := NewHold(-0.2)
	rot := NewPID(-3, -1, 0, 0.05)
	rot.Measure = "q"
	climb := NewPID(-2, -0.5, -1.5, 0.2)
	ctrl := NewTakeoff(ground, rot, climb)

	gr := snap(phase.GroundRoll, 30, map[string]float64{"v": 75})
	u := ctrl.Compute(gr)
	ctrl.Advance(gr, u)

	r0 := snap(phase.Rotation, 30, map[string]float64{"v": 75, "q": 0, "theta": 0})
	if got := ctrl.Compute(r0); got != u {
		t.Errorf("rotation start got %v, want %v", got, u)
	}
	ctrl.Advance(r0, u)

	r1 := snap(phase.Rotation, 31, map[string]float64{"v": 77, "q": 0.01, "theta": 0.03})
	u1 := ctrl.Compute(r1)
	if u1 >= u {
		t.Errorf("pitch rate below target should command more nose up: %v then %v", u, u1)
	}
	ctrl.Advance(r1, u1)

	tr := snap(phase.Transition, 31, map[string]float64{"v": 77, "q": 0.01, "theta": 0.03, "gam": 0})
	if got := ctrl.Compute(tr); got != u1 {
		t.Errorf("climb start got %v, want %v", got, u1)
	}
}

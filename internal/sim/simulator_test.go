package sim_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/controllers"
	"github.com/san-kum/takeoff/internal/integrators"
	"github.com/san-kum/takeoff/internal/metrics"
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/sim"
	"github.com/san-kum/takeoff/internal/trajectory"
)

const deg = math.Pi / 180

func setup(t *testing.T, opts phase.Options) (*aircraft.Airplane, aircraft.Runway, *trajectory.Trajectory) {
	t.Helper()
	ap, err := aircraft.Get("b734")
	if err != nil {
		t.Fatal(err)
	}
	rw, err := aircraft.GetRunway("default")
	if err != nil {
		t.Fatal(err)
	}
	tr, err := trajectory.New(ap, rw, trajectory.Options{Phase: opts})
	if err != nil {
		t.Fatal(err)
	}
	return ap, rw, tr
}

func takeoffLaw(ap *aircraft.Airplane) sim.Controller {
	limit := func(p *controllers.PID) *controllers.PID {
		p.Min, p.Max = ap.Limits.DeMin, ap.Limits.DeMax
		p.MaxRate = 10 * deg
		return p
	}
	rot := limit(controllers.NewPID(-3, -1, 0, 3*deg))
	rot.Measure = "q"
	climb := limit(controllers.NewPID(-2, -0.5, -1.5, 12*deg))
	climb.Rate = "q"
	return controllers.NewTakeoff(controllers.NewRotationSchedule(72, -20*deg, 10*deg), rot, climb)
}

func config(ap *aircraft.Airplane, rw aircraft.Runway) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Mass = ap.Limits.MTOW
	cfg.Params = trajectory.DefaultParameters(rw, 5, 0)
	return cfg
}

type counter struct{ n int }

func (c *counter) OnStep(s *sim.Snapshot) { c.n++ }

func TestRunTakeoff(t *testing.T) {
	ap, rw, tr := setup(t, phase.DefaultOptions())
	integ, _ := integrators.New("rk4")
	s := sim.New(tr, integ, takeoffLaw(ap), nil)
	obs := &counter{}
	s.AddObserver(obs)
	s.AddMetric(metrics.NewFuelBurned())

	res, err := s.Run(context.Background(), config(ap, rw))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Events) != 3 || len(res.Solution.Phases) != 3 {
		t.Fatalf("got %d events and %d phases, want 3", len(res.Events), len(res.Solution.Phases))
	}
	wantVars := []string{"f_ng", "f_mg", "h"}
	for i, ev := range res.Events {
		if ev.Phase != phase.Kind(i) || ev.Var != wantVars[i] {
			t.Errorf("event %d = %s/%s, want %s/%s", i, ev.Phase, ev.Var, phase.Kind(i), wantVars[i])
		}
	}

	gr := res.Solution.Phase(phase.GroundRoll)
	if v, _ := gr.Final("f_ng"); math.Abs(v) > 1e-6 {
		t.Errorf("nose gear force at rotation = %g, want 0", v)
	}
	rot := res.Solution.Phase(phase.Rotation)
	if v, _ := rot.Final("f_mg"); v < 0 || v > 0.01 {
		t.Errorf("main gear force at liftoff = %g, want in [0, 0.01]", v)
	}
	if x, _ := rot.Final("x"); x >= rw.TORA {
		t.Errorf("liftoff at %g m, beyond TORA %g", x, rw.TORA)
	}
	if h, _ := res.Solution.Phase(phase.Transition).Final("h"); math.Abs(h-10.668) > 1e-6 {
		t.Errorf("final height = %g, want 10.668", h)
	}

	nodes := 0
	for _, ps := range res.Solution.Phases {
		nodes += ps.N()
		x, m := ps.Values["x"], ps.Values["mass"]
		for i := 1; i < ps.N(); i++ {
			if x[i] < x[i-1] {
				t.Errorf("%s: x decreases at node %d", ps.Kind, i)
			}
			if m[i] > m[i-1] {
				t.Errorf("%s: mass increases at node %d", ps.Kind, i)
			}
		}
	}
	if obs.n != nodes {
		t.Errorf("observer saw %d nodes, want %d", obs.n, nodes)
	}

	links, err := tr.Linkages(res.Solution)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range links {
		if math.Abs(l.Residual) > 1e-12 {
			t.Errorf("%s residual = %g, want 0", l.Link, l.Residual)
		}
	}
	if res.Metrics["fuel_burned"] <= 0 {
		t.Errorf("fuel_burned = %g, want positive", res.Metrics["fuel_burned"])
	}
}

func TestRunHeadwind(t *testing.T) {
	ap, rw, tr := setup(t, phase.DefaultOptions())
	integ, _ := integrators.New("rk4")
	s := sim.New(tr, integ, takeoffLaw(ap), nil)

	cfg := config(ap, rw)
	cfg.Params = trajectory.DefaultParameters(rw, 5, 5)
	res, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	gr := res.Solution.Phase(phase.GroundRoll)
	if tas := gr.Values["tas"][0]; tas != 5 {
		t.Errorf("airspeed at brake release = %g, want the 5 m/s headwind", tas)
	}
	for _, ps := range res.Solution.Phases {
		x := ps.Values["x"]
		for i := range x {
			if x[i] < 0 {
				t.Fatalf("%s: x = %g at node %d, want >= 0", ps.Kind, x[i], i)
			}
			if i > 0 && x[i] < x[i-1] {
				t.Fatalf("%s: x decreases at node %d", ps.Kind, i)
			}
		}
	}
	if err := tr.Check(context.Background(), res.Solution, 1e-3); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestRunNoEvent(t *testing.T) {
	opts := phase.DefaultOptions()
	opts.MaxDuration[phase.GroundRoll] = 5
	ap, rw, tr := setup(t, opts)
	integ, _ := integrators.New("rk4")
	s := sim.New(tr, integ, controllers.NewHold(0), nil)

	_, err := s.Run(context.Background(), config(ap, rw))
	if !errors.Is(err, sim.ErrNoEvent) {
		t.Fatalf("Run() error = %v, want ErrNoEvent", err)
	}
	var se *sim.SimError
	if !errors.As(err, &se) || se.Phase != phase.GroundRoll {
		t.Errorf("error %v does not name the initial run", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	ap, rw, tr := setup(t, phase.DefaultOptions())
	integ, _ := integrators.New("euler")
	s := sim.New(tr, integ, controllers.NewHold(0), nil)

	tests := []struct {
		name string
		edit func(*sim.Config)
	}{
		{"zero dt", func(c *sim.Config) { c.Dt = 0 }},
		{"zero mass", func(c *sim.Config) { c.Mass = 0 }},
		{"zero event tolerance", func(c *sim.Config) { c.EventTol = 0 }},
		{"no bisection", func(c *sim.Config) { c.MaxBisect = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config(ap, rw)
			tt.edit(&cfg)
			if _, err := s.Run(context.Background(), cfg); err == nil {
				t.Error("Run() succeeded, want error")
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ap, rw, tr := setup(t, phase.DefaultOptions())
	integ, _ := integrators.New("rk4")
	s := sim.New(tr, integ, takeoffLaw(ap), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx, config(ap, rw)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

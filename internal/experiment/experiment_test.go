package experiment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/log"
	"github.com/san-kum/takeoff/internal/phase"
)

func TestRunDefault(t *testing.T) {
	var buf bytes.Buffer
	lg := log.NewWithWriter(&buf, slog.LevelInfo)

	e, err := New(config.DefaultConfig(), lg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !out.Converged {
		for _, v := range out.Violations {
			t.Log(v)
		}
		t.Fatal("default takeoff violates its constraints")
	}
	if out.Objective != -68000 {
		t.Errorf("objective = %g, want -68000", out.Objective)
	}
	if out.Liftoff <= 0 || out.Liftoff >= out.Screen {
		t.Errorf("liftoff at %g m, screen at %g m", out.Liftoff, out.Screen)
	}
	if out.Screen > 2*e.Runway.TORA {
		t.Errorf("screen distance %g m is implausible", out.Screen)
	}
	for _, name := range []string{"fuel_burned", "peak_pitch_rate", "control_effort", "alpha_margin"} {
		if _, ok := out.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}
	if !strings.Contains(buf.String(), `"phase complete"`) {
		t.Error("phase completion was not logged")
	}
}

func TestRunHoldLaw(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Control.Law = "hold"
	cfg.Solver.Limits.Rotation = 0.5

	e, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("holding full up elevator should not finish the rotation in 0.5 s")
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*config.Config)
		want string
	}{
		{"unknown law", func(c *config.Config) { c.Control.Law = "autoland" }, "unknown elevator law"},
		{"unknown integrator", func(c *config.Config) { c.Solver.Integrator = "verlet" }, "verlet"},
		{"mass above mtow", func(c *config.Config) { c.Mass = 90000 }, "mass"},
		{"unknown airplane", func(c *config.Config) { c.Airplane = "a380" }, "airplane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.edit(cfg)
			_, err := New(cfg, nil)
			if err == nil {
				t.Fatal("New() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestNewMassConfigError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mass = 1000
	_, err := New(cfg, nil)
	var ce *dynamo.ConfigError
	if !errors.As(err, &ce) || ce.Variable != "mass" {
		t.Errorf("New() error = %v, want a mass ConfigError", err)
	}
}

func TestProblemFriction(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Friction = 0.05
	_, rw, tr, err := Problem(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rw.Friction != 0.05 {
		t.Errorf("friction = %g, want 0.05", rw.Friction)
	}
	if tr.Phase(phase.Transition) == nil {
		t.Error("trajectory has no transition phase")
	}
}

func TestSweepHeadwind(t *testing.T) {
	out, err := Sweep(context.Background(), config.DefaultConfig(), []float64{0, 5}, nil)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(out))
	}
	if out[1].Liftoff >= out[0].Liftoff {
		t.Errorf("headwind liftoff %g m, calm %g m: want shorter with headwind", out[1].Liftoff, out[0].Liftoff)
	}
	if math.Abs(out[0].Solution.Params.Vw) != 0 || out[1].Solution.Params.Vw != 5 {
		t.Errorf("wind not applied: %g, %g", out[0].Solution.Params.Vw, out[1].Solution.Params.Vw)
	}
}

func TestListControllers(t *testing.T) {
	got := NewRegistry().ListControllers()
	if len(got) != 2 || got[0] != "hold" || got[1] != "takeoff" {
		t.Errorf("ListControllers() = %v", got)
	}
}

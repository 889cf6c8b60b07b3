package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/brunoga/deep"

	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/experiment"
)

func builder(base *config.Config) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := deep.MustCopy(base)
		if err := Apply(cfg, params); err != nil {
			return nil, err
		}
		return experiment.New(cfg, nil)
	}
}

func TestGridSearchVR(t *testing.T) {
	g, err := NewGridSearch([]string{"vr"}, [][]float64{{70, 76}})
	if err != nil {
		t.Fatal(err)
	}
	best, trials, err := g.Search(context.Background(), builder(config.DefaultConfig()), ScreenDistance)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(trials) != 2 {
		t.Fatalf("got %d trials, want 2", len(trials))
	}
	for _, tr := range trials {
		if tr.Err != nil {
			t.Errorf("vr %g failed: %v", tr.Params["vr"], tr.Err)
		}
		if tr.Score < best.Score {
			t.Errorf("trial %v beats best %v", tr.Score, best.Score)
		}
	}
	if best.Params["vr"] != 70 && best.Params["vr"] != 76 {
		t.Errorf("best vr = %g", best.Params["vr"])
	}
}

func TestGridSearchRecordsFailures(t *testing.T) {
	g, err := NewGridSearch([]string{"flap"}, [][]float64{{-5, 90}})
	if err != nil {
		t.Fatal(err)
	}
	_, trials, err := g.Search(context.Background(), builder(config.DefaultConfig()), ScreenDistance)
	if !errors.Is(err, ErrNoFeasible) {
		t.Fatalf("Search() error = %v, want ErrNoFeasible", err)
	}
	if len(trials) != 2 || trials[0].Err == nil || trials[1].Err == nil {
		t.Errorf("trials = %+v, want two failures", trials)
	}
}

func TestNewGridSearchRejects(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		ranges [][]float64
	}{
		{"length mismatch", []string{"vr"}, nil},
		{"unknown knob", []string{"thrust"}, [][]float64{{1}}},
		{"empty range", []string{"vr"}, [][]float64{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGridSearch(tt.params, tt.ranges); err == nil {
				t.Error("NewGridSearch() succeeded, want error")
			}
		})
	}
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := Apply(cfg, map[string]float64{"vr": 70, "pitch_target": 10}); err != nil {
		t.Fatal(err)
	}
	if cfg.Control.VR != 70 || cfg.Control.PitchTarget != 10 {
		t.Errorf("Apply() left vr %g, pitch target %g", cfg.Control.VR, cfg.Control.PitchTarget)
	}
	if err := Apply(cfg, map[string]float64{"gear": 1}); err == nil {
		t.Error("Apply() accepted an unknown knob")
	}
}

func TestSearchCancelled(t *testing.T) {
	g, _ := NewGridSearch([]string{"vr"}, [][]float64{{70}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Search(ctx, builder(config.DefaultConfig()), ScreenDistance); !errors.Is(err, context.Canceled) {
		t.Errorf("Search() error = %v, want context.Canceled", err)
	}
}

// Package optim searches the elevator law settings for the shortest
// feasible takeoff.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/experiment"
)

var ErrNoFeasible = errors.New("optim: no grid point satisfies the constraints")

// Knobs maps a tunable name to the configuration field it sets.
var Knobs = map[string]func(c *config.Config, v float64){
	"vr":           func(c *config.Config, v float64) { c.Control.VR = v },
	"rotation_de":  func(c *config.Config, v float64) { c.Control.RotationDe = v },
	"ramp_rate":    func(c *config.Config, v float64) { c.Control.RampRate = v },
	"pitch_rate":   func(c *config.Config, v float64) { c.Control.PitchRate = v },
	"pitch_target": func(c *config.Config, v float64) { c.Control.PitchTarget = v },
	"flap":         func(c *config.Config, v float64) { c.FlapAngle = v },
}

func KnobNames() []string {
	names := make([]string, 0, len(Knobs))
	for name := range Knobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply sets every named knob on c.
func Apply(c *config.Config, params map[string]float64) error {
	for name, v := range params {
		set, ok := Knobs[name]
		if !ok {
			return fmt.Errorf("optim: unknown knob %q (have %v)", name, KnobNames())
		}
		set(c, v)
	}
	return nil
}

// Score rates an outcome, lower is better. Outcomes reported as not ok are
// discarded.
type Score func(*experiment.Outcome) (float64, bool)

// ScreenDistance scores a converged takeoff by the distance to the screen.
func ScreenDistance(o *experiment.Outcome) (float64, bool) {
	return o.Screen, o.Converged
}

type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Knobs[name]; !ok {
			return nil, fmt.Errorf("optim: unknown knob %q (have %v)", name, KnobNames())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs every grid point and returns the best feasible trial along
// with all trials in grid order. Failed runs are recorded, not fatal.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	score Score,
) (Trial, []Trial, error) {
	best := Trial{Score: math.Inf(1)}
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, score, &best, &trials)
	if err != nil {
		return Trial{}, trials, err
	}
	if best.Params == nil {
		return Trial{}, trials, ErrNoFeasible
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	score Score,
	best *Trial,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		trial := Trial{Params: current, Score: math.Inf(1)}
		defer func() { *trials = append(*trials, trial) }()

		exp, err := buildExperiment(current)
		if err != nil {
			trial.Err = err
			return nil
		}
		result, err := exp.Run(ctx)
		if err != nil {
			trial.Err = err
			return nil
		}

		val, ok := score(result)
		if !ok {
			return nil
		}
		trial.Score = val
		if val < best.Score {
			*best = trial
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, score, best, trials); err != nil {
			return err
		}
	}
	return nil
}

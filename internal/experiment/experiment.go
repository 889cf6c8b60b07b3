// Package experiment turns a run configuration into a simulated takeoff and
// checks the result against the trajectory constraints.
package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/log"
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/propulsion"
	"github.com/san-kum/takeoff/internal/sim"
	"github.com/san-kum/takeoff/internal/trajectory"
)

type Experiment struct {
	Config     *config.Config
	Airplane   *aircraft.Airplane
	Runway     aircraft.Runway
	Trajectory *trajectory.Trajectory

	simulator *sim.Simulator
	simCfg    sim.Config
}

// Outcome is a simulated takeoff with its constraint check.
type Outcome struct {
	*sim.Result
	Objective  float64
	Liftoff    float64 // runway distance at liftoff, m
	Screen     float64 // distance at the screen height, m
	Converged  bool
	Violations []trajectory.Violation
}

// Problem builds the airplane, runway and trajectory that cfg describes.
func Problem(cfg *config.Config, lg *log.Logger) (*aircraft.Airplane, aircraft.Runway, *trajectory.Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, aircraft.Runway{}, nil, err
	}
	ap, err := cfg.ResolveAirplane()
	if err != nil {
		return nil, aircraft.Runway{}, nil, err
	}
	rw, err := aircraft.GetRunway(cfg.Runway)
	if err != nil {
		return nil, aircraft.Runway{}, nil, err
	}
	if cfg.Friction > 0 {
		rw.Friction = cfg.Friction
	}
	cond, err := propulsion.ParseCondition(cfg.Condition)
	if err != nil {
		return nil, aircraft.Runway{}, nil, err
	}

	opts := trajectory.Options{
		Phase: phase.Options{
			Condition:    cond,
			LandingGear:  cfg.LandingGear,
			ScreenHeight: cfg.Solver.ScreenHeight,
			LiftoffTol:   cfg.Solver.LiftoffTol,
			MaxDuration:  cfg.Solver.Limits.Array(),
		},
		Logger: lg,
	}
	tr, err := trajectory.New(ap, rw, opts)
	if err != nil {
		return nil, aircraft.Runway{}, nil, err
	}
	return ap, rw, tr, nil
}

func New(cfg *config.Config, lg *log.Logger) (*Experiment, error) {
	ap, rw, tr, err := Problem(cfg, lg)
	if err != nil {
		return nil, err
	}

	mass := cfg.Mass
	if mass == 0 {
		mass = ap.Limits.MTOW
	}
	if mass < ap.Limits.MinMass || mass > ap.Limits.MTOW {
		return nil, &dynamo.ConfigError{Variable: "mass",
			Reason: fmt.Sprintf("%g kg outside [%g, %g]", mass, ap.Limits.MinMass, ap.Limits.MTOW)}
	}

	reg := NewRegistry()
	integ, err := reg.GetIntegrator(cfg.Solver.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := reg.GetController(cfg.Control.Law, cfg, ap)
	if err != nil {
		return nil, err
	}

	s := sim.New(tr, integ, ctrl, lg)
	for _, m := range reg.DefaultMetrics(ap) {
		s.AddMetric(m)
	}

	params := trajectory.DefaultParameters(rw, cfg.FlapAngle, cfg.WindSpeed)
	params.Grav = cfg.Gravity

	return &Experiment{
		Config:     cfg,
		Airplane:   ap,
		Runway:     rw,
		Trajectory: tr,
		simulator:  s,
		simCfg: sim.Config{
			Dt:        cfg.Solver.Dt,
			Mass:      mass,
			Params:    params,
			EventTol:  cfg.Solver.EventTol,
			MaxBisect: cfg.Solver.MaxBisect,
		},
	}, nil
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	res, err := e.simulator.Run(ctx, e.simCfg)
	if err != nil {
		return nil, err
	}
	sol := res.Solution
	out := &Outcome{Result: res, Converged: true}

	if out.Objective, _, err = e.Trajectory.Objective(sol); err != nil {
		return nil, err
	}
	out.Liftoff, _ = sol.Phase(phase.Rotation).Final("x")
	out.Screen, _ = sol.Phase(phase.Transition).Final("x")

	err = e.Trajectory.Check(ctx, sol, e.Config.Solver.CheckTol)
	var ce *trajectory.ConvergenceError
	switch {
	case errors.As(err, &ce):
		out.Converged = false
		out.Violations = ce.Violations
	case err != nil:
		return nil, err
	}
	return out, nil
}

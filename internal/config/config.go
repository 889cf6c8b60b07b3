package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/propulsion"
)

const (
	DefaultDt           = 0.05
	DefaultFlapAngle    = 5.0
	DefaultScreenHeight = 10.668
	DefaultLiftoffTol   = 0.01
	DefaultCheckTol     = 1e-3
	DefaultVR           = 72.0
)

type Config struct {
	Airplane     string        `yaml:"airplane"`
	AirplaneFile string        `yaml:"airplane_file,omitempty"` // replaces the preset when set
	Runway       string        `yaml:"runway"`
	FlapAngle    float64       `yaml:"flap_angle"` // deg
	WindSpeed    float64       `yaml:"wind_speed"` // m/s, positive for a headwind
	Condition    string        `yaml:"condition"`
	Gravity      float64       `yaml:"gravity"`
	Friction     float64       `yaml:"friction"` // 0 keeps the runway's value
	Mass         float64       `yaml:"mass"`     // kg, 0 uses MTOW
	LandingGear  bool          `yaml:"landing_gear"`
	Solver       SolverConfig  `yaml:"solver"`
	Control      ControlConfig `yaml:"control"`
}

type SolverConfig struct {
	Integrator   string      `yaml:"integrator"`
	Dt           float64     `yaml:"dt"`
	ScreenHeight float64     `yaml:"screen_height"`
	LiftoffTol   float64     `yaml:"liftoff_tol"`
	EventTol     float64     `yaml:"event_tol"`
	MaxBisect    int         `yaml:"max_bisect"`
	CheckTol     float64     `yaml:"check_tol"`
	Limits       PhaseLimits `yaml:"max_duration"`
}

// PhaseLimits bounds each phase's duration, s.
type PhaseLimits struct {
	GroundRoll float64 `yaml:"initial_run"`
	Rotation   float64 `yaml:"rotation"`
	Transition float64 `yaml:"transition"`
}

type PIDGains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

// ControlConfig holds the elevator laws. Angles are in deg.
type ControlConfig struct {
	Law           string   `yaml:"law"`
	VR            float64  `yaml:"vr"`              // m/s
	RotationDe    float64  `yaml:"rotation_de"`     // deg
	RampRate      float64  `yaml:"ramp_rate"`       // deg/s
	PitchRate     float64  `yaml:"pitch_rate"`      // deg/s while rotating
	PitchTarget   float64  `yaml:"pitch_target"`    // deg after liftoff
	MaxRate       float64  `yaml:"max_rate"`        // deg/s elevator slew
	RotationGains PIDGains `yaml:"rotation_gains"`
	ClimbGains    PIDGains `yaml:"climb_gains"`
}

func DefaultConfig() *Config {
	return &Config{
		Airplane:    "b734",
		Runway:      "default",
		FlapAngle:   DefaultFlapAngle,
		Condition:   propulsion.AEO.String(),
		Gravity:     9.80665,
		LandingGear: true,
		Solver: SolverConfig{
			Integrator:   "rk4",
			Dt:           DefaultDt,
			ScreenHeight: DefaultScreenHeight,
			LiftoffTol:   DefaultLiftoffTol,
			EventTol:     1e-6,
			MaxBisect:    200,
			CheckTol:     DefaultCheckTol,
			Limits:       PhaseLimits{GroundRoll: 100, Rotation: 20, Transition: 30},
		},
		Control: ControlConfig{
			Law:           "takeoff",
			VR:            DefaultVR,
			RotationDe:    -20,
			RampRate:      10,
			PitchRate:     3,
			PitchTarget:   12,
			MaxRate:       10,
			RotationGains: PIDGains{Kp: -3, Ki: -1},
			ClimbGains:    PIDGains{Kp: -2, Ki: -0.5, Kd: -1.5},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings that cannot describe a takeoff. Airplane and
// runway names are resolved against the registered presets.
func (c *Config) Validate() error {
	bad := func(field, format string, args ...any) error {
		return &dynamo.ConfigError{Variable: field, Reason: fmt.Sprintf(format, args...)}
	}
	if c.AirplaneFile == "" {
		if _, err := aircraft.Get(c.Airplane); err != nil {
			return bad("airplane", "%v", err)
		}
	}
	if _, err := aircraft.GetRunway(c.Runway); err != nil {
		return bad("runway", "%v", err)
	}
	if _, err := propulsion.ParseCondition(c.Condition); err != nil {
		return bad("condition", "%v", err)
	}
	switch {
	case c.FlapAngle < 0 || c.FlapAngle > 45:
		return bad("flap_angle", "must be in [0, 45] deg, got %g", c.FlapAngle)
	case c.Gravity <= 0:
		return bad("gravity", "must be positive, got %g", c.Gravity)
	case c.Friction < 0:
		return bad("friction", "must be non-negative, got %g", c.Friction)
	case c.Mass < 0:
		return bad("mass", "must be non-negative, got %g", c.Mass)
	case c.Solver.Dt <= 0:
		return bad("dt", "must be positive, got %g", c.Solver.Dt)
	case c.Solver.ScreenHeight <= 0:
		return bad("screen_height", "must be positive, got %g", c.Solver.ScreenHeight)
	case c.Solver.LiftoffTol < 0:
		return bad("liftoff_tol", "must be non-negative, got %g", c.Solver.LiftoffTol)
	case c.Solver.EventTol <= 0 || c.Solver.CheckTol <= 0:
		return bad("tolerance", "event and check tolerances must be positive")
	case c.Solver.MaxBisect < 1:
		return bad("max_bisect", "must be at least 1, got %d", c.Solver.MaxBisect)
	case c.Solver.Limits.GroundRoll <= 1 || c.Solver.Limits.Rotation <= 0 || c.Solver.Limits.Transition <= 0:
		return bad("max_duration", "phase limits must be positive (initial run above 1 s)")
	case c.Control.VR <= 0:
		return bad("vr", "must be positive, got %g", c.Control.VR)
	case c.Control.RampRate <= 0 || c.Control.MaxRate <= 0:
		return bad("ramp_rate", "elevator rates must be positive")
	}
	return nil
}

// ResolveAirplane loads AirplaneFile when set and the named preset otherwise.
func (c *Config) ResolveAirplane() (*aircraft.Airplane, error) {
	if c.AirplaneFile != "" {
		return aircraft.LoadAirplane(c.AirplaneFile)
	}
	return aircraft.Get(c.Airplane)
}

// Array returns the limits in phase order.
func (l PhaseLimits) Array() [3]float64 {
	return [3]float64{l.GroundRoll, l.Rotation, l.Transition}
}

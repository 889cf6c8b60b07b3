package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/takeoff/internal/config"
)

// addConfigFlags registers the flags that select and override a run
// configuration.
func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("preset", "default", "preset configuration")
	f.String("config", "", "config file path (yaml), overrides the preset")
	f.String("airplane", "", "airplane identifier")
	f.String("airplane-file", "", "airplane definition file (yaml)")
	f.String("runway", "", "runway name")
	f.Float64("flap", 0, "flap angle, deg")
	f.Float64("wind", 0, "headwind, m/s")
	f.String("condition", "", "engine condition: AEO or OEI")
	f.Float64("mass", 0, "brake release mass, kg (0 uses MTOW)")
	f.String("integrator", "", "integrator: euler, rk4 or rk45")
	f.Float64("dt", 0, "time step, s")
	f.String("law", "", "elevator law: takeoff or hold")
	f.Float64("vr", 0, "rotation speed, m/s")
}

// loadConfig resolves the preset, then the config file, then flags and
// TAKEOFF_* variables.
func loadConfig() (*config.Config, error) {
	name := viper.GetString("preset")
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	if path := viper.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	str := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	num := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	str("airplane", &cfg.Airplane)
	str("airplane-file", &cfg.AirplaneFile)
	str("runway", &cfg.Runway)
	str("condition", &cfg.Condition)
	str("integrator", &cfg.Solver.Integrator)
	str("law", &cfg.Control.Law)
	num("flap", &cfg.FlapAngle)
	num("wind", &cfg.WindSpeed)
	num("mass", &cfg.Mass)
	num("dt", &cfg.Solver.Dt)
	num("vr", &cfg.Control.VR)

	return cfg, cfg.Validate()
}

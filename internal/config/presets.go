package config

import (
	"sort"

	"github.com/brunoga/deep"
)

// Presets are named variations of DefaultConfig.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"short": with(func(c *Config) {
		c.Runway = "short"
		c.FlapAngle = 15
		c.Control.VR = 68
	}),
	"high": with(func(c *Config) {
		c.Runway = "high"
		c.Control.VR = 75
	}),
	"wet": with(func(c *Config) {
		c.Runway = "wet"
	}),
	"headwind": with(func(c *Config) {
		c.WindSpeed = 10
	}),
	"oei": with(func(c *Config) {
		c.Runway = "high"
		c.Condition = "OEI"
		c.Mass = 55000
		c.Solver.Limits.GroundRoll = 150
	}),
}

func with(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return deep.MustCopy(cfg)
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

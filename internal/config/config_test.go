package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Airplane != "b734" {
		t.Errorf("expected airplane b734, got %s", cfg.Airplane)
	}
	if cfg.Solver.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("%s: nil preset", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("short")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Runway != "short" {
		t.Errorf("expected runway short, got %s", cfg.Runway)
	}

	cfg.Runway = "changed"
	if GetPreset("short").Runway != "short" {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"unknown airplane", func(c *Config) { c.Airplane = "a320" }, "airplane"},
		{"unknown runway", func(c *Config) { c.Runway = "grass" }, "runway"},
		{"bad condition", func(c *Config) { c.Condition = "TEO" }, "condition"},
		{"negative flap", func(c *Config) { c.FlapAngle = -1 }, "flap_angle"},
		{"zero dt", func(c *Config) { c.Solver.Dt = 0 }, "dt"},
		{"zero vr", func(c *Config) { c.Control.VR = 0 }, "vr"},
		{"short ground roll limit", func(c *Config) { c.Solver.Limits.GroundRoll = 1 }, "max_duration"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.edit(cfg)
		err := cfg.Validate()
		var ce *dynamo.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("%s: got %v, want ConfigError", tt.name, err)
			continue
		}
		if ce.Variable != tt.field {
			t.Errorf("%s: field got %q, want %q", tt.name, ce.Variable, tt.field)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("headwind")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.WindSpeed != 10 || got.Control.ClimbGains != cfg.Control.ClimbGains {
		t.Errorf("round trip lost settings: %+v", got)
	}
}

func TestResolveAirplaneFile(t *testing.T) {
	ap, err := aircraft.Get("b734")
	if err != nil {
		t.Fatal(err)
	}
	ap.ID = "b734-heavy"
	ap.Limits.MTOW = 70000
	data, err := yaml.Marshal(ap)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "heavy.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Airplane = "unknown"
	cfg.AirplaneFile = path
	if err := cfg.Validate(); err != nil {
		t.Fatalf("airplane file should bypass the preset lookup: %v", err)
	}
	got, err := cfg.ResolveAirplane()
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "b734-heavy" || got.Limits.MTOW != 70000 {
		t.Errorf("got id=%s mtow=%v", got.ID, got.Limits.MTOW)
	}
}

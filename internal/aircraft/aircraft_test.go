package aircraft

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestGetReturnsCopy(t *testing.T) {
	a, err := Get("b734")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	a.Limits.MTOW = 1
	a.Coeffs.CL0 = 99

	b, err := Get("b734")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if b.Limits.MTOW != 68000 {
		t.Errorf("preset was mutated: mtow got %v, want 68000", b.Limits.MTOW)
	}
	if b.Coeffs.CL0 != 0.5 {
		t.Errorf("preset was mutated: cl0 got %v", b.Coeffs.CL0)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("a380")
	if !errors.Is(err, ErrUnknownAirplane) {
		t.Errorf("expected ErrUnknownAirplane, got %v", err)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, id := range List() {
		ap, _ := Get(id)
		if err := ap.Validate(); err != nil {
			t.Errorf("%s: %v", id, err)
		}
	}
	for _, name := range ListRunways() {
		rw, _ := GetRunway(name)
		if err := rw.Validate(); err != nil {
			t.Errorf("runway %s: %v", name, err)
		}
	}
}

func TestWingDerived(t *testing.T) {
	w := Wing{Area: 100, Span: 30, Oswald: 0.8}
	if got := w.AspectRatio(); math.Abs(got-9) > 1e-12 {
		t.Errorf("AspectRatio() got %v, want 9", got)
	}
	want := 1 / (math.Pi * 9 * 0.8)
	if got := w.InducedDragFactor(); math.Abs(got-want) > 1e-12 {
		t.Errorf("InducedDragFactor() got %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Airplane)
	}{
		{"zero mtow", func(a *Airplane) { a.Limits.MTOW = 0 }},
		{"inverted elevator", func(a *Airplane) { a.Limits.DeMin = 1 }},
		{"no inertia", func(a *Airplane) { a.Inertia.Iy = 0 }},
		{"no engines", func(a *Airplane) { a.Engine.Count = 0 }},
		{"negative gear", func(a *Airplane) { a.LandingGear.MainX = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap, _ := Get("b734")
			tt.mutate(ap)
			if err := ap.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadAirplane(t *testing.T) {
	ap, _ := Get("b734")
	ap.ID = "custom"
	ap.Inertia.Iy = 2.5e6

	data, err := yaml.Marshal(ap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := LoadAirplane(path)
	if err != nil {
		t.Fatalf("LoadAirplane failed: %v", err)
	}
	if loaded.ID != "custom" || loaded.Inertia.Iy != 2.5e6 {
		t.Errorf("got id=%s iy=%v", loaded.ID, loaded.Inertia.Iy)
	}
	if loaded.Coeffs.Cmq != ap.Coeffs.Cmq {
		t.Errorf("cm_q got %v, want %v", loaded.Coeffs.Cmq, ap.Coeffs.Cmq)
	}
}

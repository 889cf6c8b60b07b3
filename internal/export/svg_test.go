package export

import (
	"strings"
	"testing"

	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/trajectory"
)

func solution() *trajectory.Solution {
	return &trajectory.Solution{Phases: []*trajectory.PhaseSolution{
		{Kind: phase.GroundRoll, Time: []float64{0, 20}, Values: map[string][]float64{"x": {0, 1000}}},
		{Kind: phase.Rotation, Time: []float64{20, 23}, Values: map[string][]float64{"x": {1000, 1200}, "h": {0, 0.2}}},
		{Kind: phase.Transition, Time: []float64{23, 27}, Values: map[string][]float64{"x": {1200, 1500}, "h": {0.2, 10.668}}},
	}}
}

func TestProfileSVG(t *testing.T) {
	svg, err := ProfileSVG(solution(), "x", "h", 800, 200)
	if err != nil {
		t.Fatalf("ProfileSVG() error = %v", err)
	}
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("output is not a complete SVG document")
	}
	for _, k := range phase.Kinds() {
		if !strings.Contains(svg, `id="`+k.String()+`"`) {
			t.Errorf("no path for %s", k)
		}
	}
	if got := strings.Count(svg, " L"); got != 3 {
		t.Errorf("got %d line segments, want 3", got)
	}
}

func TestProfileSVGTime(t *testing.T) {
	if _, err := ProfileSVG(solution(), "time", "x", 400, 100); err != nil {
		t.Errorf("ProfileSVG() over time error = %v", err)
	}
}

func TestProfileSVGMissingAxis(t *testing.T) {
	if _, err := ProfileSVG(solution(), "gam", "h", 400, 100); err == nil {
		t.Error("ProfileSVG() accepted an x variable no phase records")
	}
	empty := &trajectory.Solution{}
	if _, err := ProfileSVG(empty, "x", "h", 400, 100); err == nil {
		t.Error("ProfileSVG() accepted an empty solution")
	}
}

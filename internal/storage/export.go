package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/takeoff/internal/experiment"
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/sim"
)

type PhaseData struct {
	Phase  phase.Kind           `json:"phase"`
	Time   []float64            `json:"time"`
	Values map[string][]float64 `json:"values"`
}

type ExportData struct {
	Objective float64            `json:"objective"`
	Liftoff   float64            `json:"liftoff"`
	Screen    float64            `json:"screen"`
	Converged bool               `json:"converged"`
	Events    []sim.Event        `json:"events"`
	Metrics   map[string]float64 `json:"metrics"`
	Phases    []PhaseData        `json:"phases"`
}

func exportData(out *experiment.Outcome) ExportData {
	data := ExportData{
		Objective: out.Objective,
		Liftoff:   out.Liftoff,
		Screen:    out.Screen,
		Converged: out.Converged,
		Events:    out.Events,
		Metrics:   out.Metrics,
		Phases:    make([]PhaseData, len(out.Solution.Phases)),
	}
	for i, ps := range out.Solution.Phases {
		data.Phases[i] = PhaseData{Phase: ps.Kind, Time: ps.Time, Values: ps.Values}
	}
	return data
}

func WriteJSON(w io.Writer, out *experiment.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData(out))
}

func ExportJSON(path string, out *experiment.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, out)
}

package trajectory

import (
	"gopkg.in/yaml.v3"

	"github.com/san-kum/takeoff/internal/phase"
)

// Descriptor is everything an optimizer needs to transcribe the problem.
type Descriptor struct {
	Airplane   string         `yaml:"airplane"`
	TORA       float64        `yaml:"tora"`
	Phases     []phase.Schema `yaml:"phases"`
	Objective  ObjectiveSpec  `yaml:"objective"`
	Linkages   []Linkage      `yaml:"linkages"`
	Parameters []string       `yaml:"parameters"`
}

type ObjectiveSpec struct {
	Name  string         `yaml:"name"`
	Phase phase.Kind     `yaml:"phase"`
	Loc   phase.Location `yaml:"loc"`
}

func (t *Trajectory) Describe() *Descriptor {
	d := &Descriptor{
		Airplane:   t.Airplane.ID,
		TORA:       t.Runway.TORA,
		Objective:  ObjectiveSpec{Name: ObjectiveName, Phase: phase.GroundRoll, Loc: phase.LocInitial},
		Linkages:   append([]Linkage(nil), t.Links...),
		Parameters: append([]string(nil), phase.Parameters...),
	}
	for _, p := range t.Phases {
		d.Phases = append(d.Phases, p.Schema)
	}
	return d
}

// YAML renders the descriptor.
func (d *Descriptor) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

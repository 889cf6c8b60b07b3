// Package storage keeps simulated takeoffs on disk: a JSON summary, one CSV
// time history per phase and the full solution as zstd-compressed msgpack.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/brunoga/deep"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/experiment"
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/sim"
	"github.com/san-kum/takeoff/internal/trajectory"
)

const (
	metadataFile = "metadata.json"
	solutionFile = "solution.msgpack.zst"
)

var ErrNoRun = errors.New("storage: no such run")

type Store struct {
	baseDir string
	// solutions holds recently decoded solutions keyed by run ID.
	solutions *expirable.LRU[string, *trajectory.Solution]
}

func New(baseDir string) *Store {
	return &Store{
		baseDir:   baseDir,
		solutions: expirable.NewLRU[string, *trajectory.Solution](16, nil, 10*time.Minute),
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Airplane   string             `json:"airplane"`
	Runway     string             `json:"runway"`
	Condition  string             `json:"condition"`
	FlapAngle  float64            `json:"flap_angle"`
	WindSpeed  float64            `json:"wind_speed"`
	Mass       float64            `json:"mass"`
	Dt         float64            `json:"dt"`
	Integrator string             `json:"integrator"`
	Law        string             `json:"law"`
	Objective  float64            `json:"objective"`
	Liftoff    float64            `json:"liftoff"`
	Screen     float64            `json:"screen"`
	Converged  bool               `json:"converged"`
	Events     []sim.Event        `json:"events"`
	Metrics    map[string]float64 `json:"metrics"`

	Violations []trajectory.Violation `json:"violations,omitempty"`
}

// Save writes out under a new run directory and returns the run ID.
func (s *Store) Save(cfg *config.Config, out *experiment.Outcome) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Airplane, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	var brakeRelease float64
	if gr := out.Solution.Phase(phase.GroundRoll); gr != nil {
		brakeRelease, _ = gr.Initial("mass")
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  now,
		Airplane:   cfg.Airplane,
		Runway:     cfg.Runway,
		Condition:  cfg.Condition,
		FlapAngle:  cfg.FlapAngle,
		WindSpeed:  cfg.WindSpeed,
		Mass:       brakeRelease,
		Dt:         cfg.Solver.Dt,
		Integrator: cfg.Solver.Integrator,
		Law:        cfg.Control.Law,
		Objective:  out.Objective,
		Liftoff:    out.Liftoff,
		Screen:     out.Screen,
		Converged:  out.Converged,
		Events:     out.Events,
		Metrics:    out.Metrics,
		Violations: out.Violations,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	for _, ps := range out.Solution.Phases {
		if err := writeCSV(filepath.Join(runDir, ps.Kind.String()+".csv"), ps); err != nil {
			return "", err
		}
	}
	if err := writeSolution(filepath.Join(runDir, solutionFile), out.Solution); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Columns returns the CSV header of ps: time, then every recorded variable
// in sorted order.
func Columns(ps *trajectory.PhaseSolution) []string {
	names := make([]string, 0, len(ps.Values))
	for name := range ps.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{"time"}, names...)
}

func writeCSV(path string, ps *trajectory.PhaseSolution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := Columns(ps)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range ps.Time {
		row := []string{strconv.FormatFloat(ps.Time[i], 'g', -1, 64)}
		for _, name := range header[1:] {
			row = append(row, strconv.FormatFloat(ps.Values[name][i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSolution(path string, sol *trajectory.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(sol); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSolution decodes the full solution saved with runID.
// LoadSolution decodes the stored solution of a run. Results are cached to
// avoid repeated decompression; callers get their own copy.
func (s *Store) LoadSolution(runID string) (*trajectory.Solution, error) {
	if sol, ok := s.solutions.Get(runID); ok {
		return deep.MustCopy(sol), nil
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, solutionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var sol trajectory.Solution
	if err := msgpack.NewDecoder(zr).Decode(&sol); err != nil {
		return nil, fmt.Errorf("decode %s: %w", runID, err)
	}
	s.solutions.Add(runID, &sol)
	return deep.MustCopy(&sol), nil
}

// LoadPhase reads one phase's CSV time history back as columns keyed by
// header name.
func (s *Store) LoadPhase(runID string, k phase.Kind) (map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, k.String()+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[string][]float64{}, nil
	}

	header := records[0]
	cols := make(map[string][]float64, len(header))
	for _, row := range records[1:] {
		for j, name := range header {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", k, len(cols[name]), name, err)
			}
			cols[name] = append(cols[name], v)
		}
	}
	return cols, nil
}

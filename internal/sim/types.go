package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/trajectory"
)

// State holds the phase states in schema order.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type Dynamics interface {
	Derivative(x State, u Control, t float64) (State, error)
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) (State, error)
}

// Snapshot is one node as seen by controllers, metrics and observers.
// Values holds the states and, once the node is evaluated, the elevator and
// every ODE output.
type Snapshot struct {
	Phase  phase.Kind
	T      float64
	Values map[string]float64
}

// Airspeed returns tas once the ODE has computed it, and the runway speed
// v plus the headwind Vw before that.
func (s *Snapshot) Airspeed() float64 {
	if tas, ok := s.Values["tas"]; ok {
		return tas
	}
	return s.Values["v"] + s.Values["Vw"]
}

// Controller commands the elevator. Compute must not change controller
// state: the solver tries candidate nodes while locating events. Advance
// commits an accepted node and the command issued there.
type Controller interface {
	Compute(s *Snapshot) float64
	Advance(s *Snapshot, u float64)
}

type Metric interface {
	Name() string
	Observe(s *Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *Snapshot)
}

type Config struct {
	Dt        float64
	Mass      float64 // brake release mass, kg
	Params    trajectory.Parameters
	EventTol  float64 // half width of equality event windows
	MaxBisect int
}

func DefaultConfig() Config {
	return Config{
		Dt:        0.05,
		EventTol:  1e-6,
		MaxBisect: 200,
	}
}

// Event records where a phase ended.
type Event struct {
	Phase phase.Kind `json:"phase"`
	Var   string     `json:"var"`
	Time  float64    `json:"time"`
	Value float64    `json:"value"`
	Steps int        `json:"steps"`
}

type Result struct {
	Solution *trajectory.Solution
	Events   []Event
	Metrics  map[string]float64
}

var (
	// ErrNoEvent is returned when a phase reaches its time limit before its
	// ending event.
	ErrNoEvent = errors.New("sim: phase ended without reaching its event")

	// ErrBisection is returned when an event crossing cannot be located to
	// the requested tolerance.
	ErrBisection = errors.New("sim: event bisection did not converge")
)

type SimError struct {
	Phase phase.Kind
	Time  float64
	Step  int
	Err   error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("%s step %d (t=%.4f): %v", e.Phase, e.Step, e.Time, e.Err)
}

func (e *SimError) Unwrap() error { return e.Err }

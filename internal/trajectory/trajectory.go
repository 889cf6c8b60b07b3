// Package trajectory assembles the ground roll, rotation and transition
// phases into one linked takeoff problem and exposes it to an optimizer.
package trajectory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/log"
	"github.com/san-kum/takeoff/internal/phase"
)

// ErrNotConverged is wrapped by ConvergenceError.
var ErrNotConverged = errors.New("trajectory: constraints not satisfied")

// Linkage ties variable Var at the end of From to its value at the start of
// the following phase.
type Linkage struct {
	From phase.Kind `yaml:"from"`
	To   phase.Kind `yaml:"to"`
	Var  string     `yaml:"var"`
}

func (l Linkage) String() string { return fmt.Sprintf("%s.%s -> %s.%s", l.From, l.Var, l.To, l.Var) }

// linked lists what carries over each phase boundary. The elevator is
// linked explicitly so control continuity is a constraint, not an accident
// of the transcription.
var linked = map[phase.Kind][]string{
	phase.GroundRoll: {"time", "x", "v", "mass", "de"},
	phase.Rotation:   {"time", "x", "h", "v", "mass", "theta", "q", "de"},
}

type Options struct {
	Phase  phase.Options
	Logger *log.Logger
}

func DefaultOptions() Options {
	return Options{Phase: phase.DefaultOptions()}
}

type Trajectory struct {
	Airplane *aircraft.Airplane
	Runway   aircraft.Runway
	Phases   []*phase.Phase
	Links    []Linkage

	lg *log.Logger
}

// New builds GroundRoll -> Rotation -> Transition and validates the
// result. ap and rw are only read.
func New(ap *aircraft.Airplane, rw aircraft.Runway, opts Options) (*Trajectory, error) {
	if err := rw.Validate(); err != nil {
		return nil, &dynamo.ConfigError{Reason: err.Error()}
	}
	t := &Trajectory{Airplane: ap, Runway: rw, lg: opts.Logger.With(slog.String("airplane", ap.ID))}

	k := phase.GroundRoll
	for {
		p, err := phase.New(k, ap, rw, opts.Phase)
		if err != nil {
			return nil, err
		}
		t.Phases = append(t.Phases, p)
		t.lg.Debug("phase declared", slog.String("phase", k.String()),
			slog.Int("states", len(p.Schema.States)), slog.Int("controls", len(p.Schema.Controls)))

		next, ok := k.Next()
		if !ok {
			break
		}
		for _, v := range linked[k] {
			t.Links = append(t.Links, Linkage{From: k, To: next, Var: v})
		}
		k = next
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.lg.Info("trajectory assembled", slog.Int("phases", len(t.Phases)), slog.Int("linkages", len(t.Links)))
	return t, nil
}

func (t *Trajectory) Phase(k phase.Kind) *phase.Phase {
	for _, p := range t.Phases {
		if p.Kind() == k {
			return p
		}
	}
	return nil
}

// Validate checks phase order, linkage references, parameter wiring and
// bounds. It performs no numerical evaluation.
func (t *Trajectory) Validate() error {
	kinds := phase.Kinds()
	if len(t.Phases) != len(kinds) {
		return &dynamo.ConfigError{Reason: fmt.Sprintf("expected %d phases, have %d", len(kinds), len(t.Phases))}
	}
	for i, p := range t.Phases {
		if p == nil || p.Kind() != kinds[i] {
			return &dynamo.ConfigError{Phase: kinds[i].String(), Reason: "phase missing or out of order"}
		}
		if err := p.Schema.Validate(); err != nil {
			return err
		}
		if !sameParams(p.Schema.Parameters, phase.Parameters) {
			return &dynamo.ConfigError{Phase: p.String(), Reason: "shared parameters not wired identically"}
		}
	}

	covered := make(map[phase.Kind]map[string]bool)
	for _, l := range t.Links {
		from, to := t.Phase(l.From), t.Phase(l.To)
		if from == nil || to == nil {
			return &dynamo.ConfigError{Variable: l.Var, Reason: "linkage references a missing phase"}
		}
		if next, ok := l.From.Next(); !ok || next != l.To {
			return &dynamo.ConfigError{Phase: l.From.String(), Variable: l.Var, Reason: "linkage skips a phase"}
		}
		if l.Var == "time" {
			continue
		}
		if !from.Schema.Has(l.Var) {
			return &dynamo.ConfigError{Phase: l.From.String(), Variable: l.Var, Reason: "linked variable not declared"}
		}
		if !to.Schema.Has(l.Var) {
			return &dynamo.ConfigError{Phase: l.To.String(), Variable: l.Var, Reason: "linked variable not declared"}
		}
		if covered[l.To] == nil {
			covered[l.To] = make(map[string]bool)
		}
		covered[l.To][l.Var] = true
	}
	for _, p := range t.Phases[1:] {
		for _, st := range p.Schema.States {
			if st.Initial == phase.Linked && !covered[p.Kind()][st.Name] {
				return &dynamo.ConfigError{Phase: p.String(), Variable: st.Name, Reason: "state initial value is linked but no linkage supplies it"}
			}
		}
	}
	return nil
}

func sameParams(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// EvaluateAll evaluates every phase of sol concurrently. Failures carry the
// phase name.
func (t *Trajectory) EvaluateAll(ctx context.Context, sol *Solution, withPartials bool) ([]*phase.Evaluation, error) {
	evals := make([]*phase.Evaluation, len(t.Phases))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range t.Phases {
		i, p := i, p
		nv, ok := sol.NodeValues(p.Kind())
		if !ok {
			return nil, fmt.Errorf("phase %s: %w", p, &dynamo.EvalError{Phase: p.String(), Node: -1, Err: dynamo.ErrMissingInput})
		}
		g.Go(func() error {
			ev, err := p.EvaluateContext(ctx, nv, withPartials)
			if err != nil {
				return fmt.Errorf("phase %s: %w", p, err)
			}
			evals[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.lg.Warn("evaluation failed", slog.Any("error", err))
		return nil, err
	}
	return evals, nil
}

// LinkResidual is end-of-From minus start-of-To for one linkage.
type LinkResidual struct {
	Link     Linkage
	End      float64
	Start    float64
	Residual float64
}

// Linkages returns the residual of every linkage constraint.
func (t *Trajectory) Linkages(sol *Solution) ([]LinkResidual, error) {
	out := make([]LinkResidual, 0, len(t.Links))
	for _, l := range t.Links {
		from, to := sol.Phase(l.From), sol.Phase(l.To)
		if from == nil || to == nil {
			return nil, &dynamo.ConfigError{Variable: l.Var, Reason: "solution is missing a linked phase"}
		}
		end, ok := from.Final(l.Var)
		if !ok {
			return nil, &dynamo.EvalError{Phase: l.From.String(), Node: -1, Variable: l.Var, Err: dynamo.ErrMissingInput}
		}
		start, ok := to.Initial(l.Var)
		if !ok {
			return nil, &dynamo.EvalError{Phase: l.To.String(), Node: -1, Variable: l.Var, Err: dynamo.ErrMissingInput}
		}
		out = append(out, LinkResidual{Link: l, End: end, Start: start, Residual: end - start})
	}
	return out, nil
}

// Violation is one unsatisfied constraint.
type Violation struct {
	Phase      phase.Kind `json:"phase"`
	Constraint string     `json:"constraint"`
	Kind       string     `json:"kind"` // linkage, boundary, path, state, control or time
	Node       int        `json:"node"`
	Value      float64    `json:"value"`
	Amount     float64    `json:"amount"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s %s: value %g at node %d violates by %g", v.Phase, v.Kind, v.Constraint, v.Value, v.Node, v.Amount)
}

// ConvergenceError reports the constraint violations of the last iterate.
type ConvergenceError struct {
	Violations []Violation
	Objective  float64
	Solution   *Solution // the iterate that was checked
}

func (e *ConvergenceError) Error() string {
	worst := 0.0
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		worst = math.Max(worst, v.Amount)
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%v: %d violations (max %g, objective %g): %s",
		ErrNotConverged, len(e.Violations), worst, e.Objective, strings.Join(parts, "; "))
}

func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

// Check verifies linkage, boundary and path constraints, the state and
// control boxes and the phase durations of sol to tol. It returns a
// *ConvergenceError listing every violation.
func (t *Trajectory) Check(ctx context.Context, sol *Solution, tol float64) error {
	evals, err := t.EvaluateAll(ctx, sol, false)
	if err != nil {
		return err
	}
	var viol []Violation

	links, err := t.Linkages(sol)
	if err != nil {
		return err
	}
	for _, r := range links {
		if math.Abs(r.Residual) > tol {
			viol = append(viol, Violation{Phase: r.Link.From, Constraint: r.Link.Var, Kind: "linkage",
				Node: -1, Value: r.Residual, Amount: math.Abs(r.Residual)})
		}
	}

	for i, p := range t.Phases {
		ev := evals[i]
		for _, c := range p.Schema.Boundary {
			v, err := ev.Boundary(c)
			if err != nil {
				return err
			}
			if d := c.Bounds.Violation(v); d > tol {
				node := 0
				if c.Loc == phase.LocFinal {
					node = ev.N - 1
				}
				viol = append(viol, Violation{Phase: p.Kind(), Constraint: c.Name, Kind: "boundary", Node: node, Value: v, Amount: d})
			}
		}
		for _, c := range p.Schema.Path {
			d, node, err := ev.PathViolation(c)
			if err != nil {
				return err
			}
			if d > tol {
				v, _ := ev.Value(c.Name, node)
				viol = append(viol, Violation{Phase: p.Kind(), Constraint: c.Name, Kind: "path", Node: node, Value: v, Amount: d})
			}
		}

		ps := sol.Phase(p.Kind())
		for _, st := range p.Schema.States {
			if v, ok := boxViolation(p.Kind(), "state", st.Name, ps.Values[st.Name], st.Bounds, tol); ok {
				viol = append(viol, v)
			}
		}
		for _, c := range p.Schema.Controls {
			if v, ok := boxViolation(p.Kind(), "control", c.Name, ps.Values[c.Name], c.Bounds, tol); ok {
				viol = append(viol, v)
			}
		}
		if n := ps.N(); n > 0 {
			dur := ps.Time[n-1] - ps.Time[0]
			if d := p.Schema.Time.Duration.Violation(dur); d > tol {
				viol = append(viol, Violation{Phase: p.Kind(), Constraint: "duration", Kind: "time", Node: n - 1, Value: dur, Amount: d})
			}
		}
	}

	if len(viol) == 0 {
		return nil
	}
	obj, _, _ := t.Objective(sol)
	t.lg.Warn("constraints violated", slog.Int("count", len(viol)))
	return &ConvergenceError{Violations: viol, Objective: obj, Solution: sol}
}

// boxViolation reports the worst node of vals outside b, if it exceeds tol.
func boxViolation(k phase.Kind, kind, name string, vals []float64, b phase.Bounds, tol float64) (Violation, bool) {
	worst := Violation{Phase: k, Constraint: name, Kind: kind, Node: -1}
	for i, v := range vals {
		if d := b.Violation(v); d > worst.Amount {
			worst.Node, worst.Value, worst.Amount = i, v, d
		}
	}
	return worst, worst.Amount > tol
}

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/san-kum/takeoff/internal/dynamo"
	"github.com/san-kum/takeoff/internal/log"
	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/trajectory"
)

// recorded lists the ODE outputs stored next to states and controls.
var recorded = []string{"tas", "alpha", "thrust", "m_dot", "L", "D", "M", "CL", "CD", "Cm", "qbar", "f_mg", "f_ng", "f_rr"}

// Simulator shoots the takeoff forward phase by phase. Each phase ends at
// the terminal event its schema declares.
type Simulator struct {
	tr         *trajectory.Trajectory
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
	lg         *log.Logger
}

func New(tr *trajectory.Trajectory, integrator Integrator, controller Controller, lg *log.Logger) *Simulator {
	return &Simulator{
		tr:         tr,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		lg:         lg,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	res := &Result{
		Solution: &trajectory.Solution{Params: cfg.Params},
		Metrics:  make(map[string]float64),
	}
	params := cfg.Params.Inputs()

	var prev *trajectory.PhaseSolution
	t := 0.0
	for _, p := range s.tr.Phases {
		if p.Schema.Time.FixInitial {
			t = p.Schema.Time.Initial
		}
		x0, err := initialState(p, prev, cfg)
		if err != nil {
			return nil, err
		}
		ps, ev, err := s.runPhase(ctx, p, params, x0, t, cfg)
		if err != nil {
			s.lg.Error("phase failed", slog.String("phase", p.String()), slog.Any("error", err))
			return nil, err
		}
		s.lg.Info("phase complete", slog.String("phase", p.String()), slog.String("event", ev.Var),
			slog.Float64("t", ev.Time), slog.Float64("value", ev.Value), slog.Int("steps", ev.Steps))

		res.Solution.Phases = append(res.Solution.Phases, ps)
		res.Events = append(res.Events, ev)
		t = ev.Time
		prev = ps
	}

	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Mass <= 0 {
		return fmt.Errorf("mass must be positive, got %f", cfg.Mass)
	}
	if cfg.EventTol <= 0 {
		return fmt.Errorf("event tolerance must be positive, got %g", cfg.EventTol)
	}
	if cfg.MaxBisect < 1 {
		return fmt.Errorf("bisection limit must be at least 1, got %d", cfg.MaxBisect)
	}
	return nil
}

// initialState resolves each state's first value: fixed values from the
// schema, the brake release mass, or the previous phase's last node.
func initialState(p *phase.Phase, prev *trajectory.PhaseSolution, cfg Config) (State, error) {
	x := make(State, len(p.Schema.States))
	for i, st := range p.Schema.States {
		switch st.Initial {
		case phase.Fixed:
			x[i] = st.Value
		case phase.Free:
			if st.Name != "mass" {
				return nil, &dynamo.ConfigError{Phase: p.String(), Variable: st.Name, Reason: "no initial guess for free state"}
			}
			x[i] = cfg.Mass
		case phase.Linked:
			if prev == nil {
				return nil, &dynamo.ConfigError{Phase: p.String(), Variable: st.Name, Reason: "linked state in the first phase"}
			}
			v, ok := prev.Final(st.Name)
			if !ok {
				return nil, &dynamo.ConfigError{Phase: p.String(), Variable: st.Name, Reason: "previous phase does not carry it"}
			}
			x[i] = v
		}
	}
	return x, nil
}

// event is the terminal condition of a phase: the variable enters the
// window [lo, hi].
type event struct {
	name   string
	lo, hi float64
}

func eventFor(s *phase.Schema, tol float64) (event, error) {
	for _, c := range s.Boundary {
		b := c.Bounds
		if c.Loc != phase.LocFinal || math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0) {
			continue
		}
		e := event{name: c.Name, lo: b.Lower, hi: b.Upper}
		if b.IsEquality() {
			e.lo -= tol
			e.hi += tol
		}
		return e, nil
	}
	return event{}, &dynamo.ConfigError{Phase: s.Kind.String(), Reason: "phase declares no terminal event"}
}

func (e event) side(v float64) int {
	switch {
	case v < e.lo:
		return -1
	case v > e.hi:
		return 1
	}
	return 0
}

type node struct {
	x    State
	u    float64
	snap *Snapshot
}

// evalNode asks the controller for the elevator at x and evaluates the ODE.
func (s *Simulator) evalNode(ode *phaseODE, x State, t float64) (node, error) {
	snap := ode.snapshot(x, t)
	u := s.controller.Compute(snap)
	ev, err := ode.evaluate(x, Control{u}, t)
	if err != nil {
		return node{}, err
	}
	fill(snap, ev)
	return node{x: x, u: u, snap: snap}, nil
}

func (s *Simulator) accept(rec *recorder, n node) {
	rec.add(n)
	s.controller.Advance(n.snap, n.u)
	for _, m := range s.metrics {
		m.Observe(n.snap)
	}
	for _, o := range s.observers {
		o.OnStep(n.snap)
	}
}

func (s *Simulator) runPhase(ctx context.Context, p *phase.Phase, params dynamo.Inputs, x0 State, t0 float64, cfg Config) (*trajectory.PhaseSolution, Event, error) {
	k := p.Kind()
	ev, err := eventFor(&p.Schema, cfg.EventTol)
	if err != nil {
		return nil, Event{}, err
	}
	ode := newPhaseODE(p, params)
	rec := newRecorder(p)
	tEnd := t0 + p.Schema.Time.Duration.Upper
	fail := func(step int, t float64, err error) (*trajectory.PhaseSolution, Event, error) {
		return nil, Event{}, &SimError{Phase: k, Time: t, Step: step, Err: err}
	}

	cur, err := s.evalNode(ode, x0, t0)
	if err != nil {
		return fail(0, t0, err)
	}
	s.accept(rec, cur)
	start := ev.side(cur.snap.Values[ev.name])
	t := t0

	for step := 1; start != 0; step++ {
		if err := ctx.Err(); err != nil {
			return nil, Event{}, err
		}
		if t >= tEnd {
			return fail(step, t, fmt.Errorf("%w: %s not reached within %g s", ErrNoEvent, ev.name, p.Schema.Time.Duration.Upper))
		}
		h := math.Min(cfg.Dt, tEnd-t)
		next, err := s.step(ode, cur, t, h)
		if err != nil {
			return fail(step, t, err)
		}
		side := ev.side(next.snap.Values[ev.name])
		if side != 0 && side != start {
			s.lg.Debug("event bracketed", slog.String("phase", k.String()), slog.Float64("t", t), slog.Float64("dt", h))
			next, h, err = s.bisect(ode, cur, t, h, ev, start, cfg.MaxBisect)
			if err != nil {
				return fail(step, t, err)
			}
			side = 0
		}
		t += h
		cur = next
		s.accept(rec, cur)
		if side == 0 {
			return rec.solution(), Event{Phase: k, Var: ev.name, Time: t, Value: cur.snap.Values[ev.name], Steps: step}, nil
		}
	}
	return rec.solution(), Event{Phase: k, Var: ev.name, Time: t, Value: cur.snap.Values[ev.name]}, nil
}

// step advances from cur by h holding cur's elevator.
func (s *Simulator) step(ode *phaseODE, cur node, t, h float64) (node, error) {
	x, err := s.integrator.Step(ode, cur.x, Control{cur.u}, t, h)
	if err != nil {
		return node{}, err
	}
	if !x.IsValid() {
		return node{}, dynamo.ErrNonFinite
	}
	return s.evalNode(ode, x, t+h)
}

// bisect shrinks the step until the event variable lands in its window.
func (s *Simulator) bisect(ode *phaseODE, cur node, t, h float64, ev event, start, maxIter int) (node, float64, error) {
	lo, hi := 0.0, h
	for i := 0; i < maxIter; i++ {
		mid := 0.5 * (lo + hi)
		n, err := s.step(ode, cur, t, mid)
		if err != nil {
			return node{}, 0, err
		}
		switch ev.side(n.snap.Values[ev.name]) {
		case 0:
			return n, mid, nil
		case start:
			lo = mid
		default:
			hi = mid
		}
		if hi-lo <= 0 {
			break
		}
	}
	return node{}, 0, fmt.Errorf("%w: %s window [%g, %g]", ErrBisection, ev.name, ev.lo, ev.hi)
}

type recorder struct {
	p  *phase.Phase
	ps *trajectory.PhaseSolution
}

func newRecorder(p *phase.Phase) *recorder {
	return &recorder{p: p, ps: &trajectory.PhaseSolution{Kind: p.Kind(), Values: make(map[string][]float64)}}
}

func (r *recorder) add(n node) {
	r.ps.Time = append(r.ps.Time, n.snap.T)
	for _, st := range r.p.Schema.States {
		r.ps.Values[st.Name] = append(r.ps.Values[st.Name], n.snap.Values[st.Name])
	}
	for _, c := range r.p.Schema.Controls {
		r.ps.Values[c.Name] = append(r.ps.Values[c.Name], n.snap.Values[c.Name])
	}
	for _, name := range recorded {
		if r.p.Schema.Has(name) {
			continue
		}
		if v, ok := n.snap.Values[name]; ok {
			r.ps.Values[name] = append(r.ps.Values[name], v)
		}
	}
}

func (r *recorder) solution() *trajectory.PhaseSolution {
	ps := r.ps
	for name, v := range ps.Values {
		ps.Values[name] = slices.Clip(v)
	}
	return ps
}

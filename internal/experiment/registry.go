package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/takeoff/internal/aircraft"
	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/controllers"
	"github.com/san-kum/takeoff/internal/integrators"
	"github.com/san-kum/takeoff/internal/metrics"
	"github.com/san-kum/takeoff/internal/sim"
)

const deg = math.Pi / 180

type Registry struct {
	controllers map[string]func(*config.Config, *aircraft.Airplane) sim.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		controllers: make(map[string]func(*config.Config, *aircraft.Airplane) sim.Controller),
	}

	r.controllers["takeoff"] = func(c *config.Config, ap *aircraft.Airplane) sim.Controller {
		k := c.Control
		limit := func(p *controllers.PID) *controllers.PID {
			p.Min, p.Max = ap.Limits.DeMin, ap.Limits.DeMax
			p.MaxRate = k.MaxRate * deg
			return p
		}
		sched := controllers.NewRotationSchedule(k.VR, k.RotationDe*deg, k.RampRate*deg)

		g := k.RotationGains
		rot := limit(controllers.NewPID(g.Kp, g.Ki, g.Kd, k.PitchRate*deg))
		rot.Measure = "q"

		g = k.ClimbGains
		climb := limit(controllers.NewPID(g.Kp, g.Ki, g.Kd, k.PitchTarget*deg))
		climb.Rate = "q"

		return controllers.NewTakeoff(sched, rot, climb)
	}
	r.controllers["hold"] = func(c *config.Config, ap *aircraft.Airplane) sim.Controller {
		return controllers.NewHold(c.Control.RotationDe * deg)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	return integrators.New(name)
}

func (r *Registry) GetController(name string, c *config.Config, ap *aircraft.Airplane) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown elevator law: %s", name)
	}
	return fn(c, ap), nil
}

func (r *Registry) ListControllers() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(ap *aircraft.Airplane) []sim.Metric {
	return metrics.Standard(ap.Limits.AlphaMax)
}

// Package integrators provides fixed-step ODE integrators for the phase
// equations of motion.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/takeoff/internal/sim"
)

var registry = map[string]func() sim.Integrator{
	"euler": func() sim.Integrator { return NewEuler() },
	"rk4":   func() sim.Integrator { return NewRK4() },
	"rk45":  func() sim.Integrator { return NewRK45() },
}

// New returns a fresh integrator by name. Integrators keep scratch
// buffers, so concurrent runs need their own.
func New(name string) (sim.Integrator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("integrators: unknown integrator %q (have %v)", name, Names())
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

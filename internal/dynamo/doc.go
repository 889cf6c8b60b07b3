// Package dynamo provides the component contract shared by every model in the
// takeoff problem.
//
// A component is a pure, node-wise function: it maps named input vectors to
// named output vectors without coupling values across nodes. The package
// defines:
//
//   - [Vector]: values of one variable at every node (length 1 for scalars)
//   - [Component]: declared inputs/outputs plus a Compute method
//   - [Differentiable]: a component that also publishes its partials
//   - [WithFD]: the default central-difference derivative provider
//   - [Group]: ordered wiring of components with total-derivative accumulation
//   - [CheckPartials]: declared-vs-numeric partial comparison
//
// # Example
//
//	g := dynamo.NewGroup("aero")
//	g.Add("qbar", aero.NewDynamicPressure())
//	g.Add("forces", aero.NewForces(ap), dynamo.Alias("CL", "cl"))
//	if err := g.Build(); err != nil { ... }
//	res, err := g.Linearize(in, []string{"tas"})
//
// # Thread Safety
//
// Components hold no mutable state and may be evaluated concurrently. A built
// Group is read-only and safe for concurrent Run/Linearize calls.
package dynamo

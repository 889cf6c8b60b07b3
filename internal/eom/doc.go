// Package eom implements the equations of motion of the three takeoff
// phases and the small kinematic helpers they depend on.
//
// Every component publishes hand-derived partials. Gravity and the rolling
// friction coefficient are ordinary inputs so callers can vary them.
package eom

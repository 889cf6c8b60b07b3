// Package phase declares the three takeoff phases, their state, control and
// constraint schemas, and evaluates each phase's ODE at a set of nodes.
package phase

import "fmt"

// Kind is one of the three ordered takeoff phases.
type Kind int

const (
	GroundRoll Kind = iota
	Rotation
	Transition
)

// Kinds returns every phase in flight order.
func Kinds() []Kind { return []Kind{GroundRoll, Rotation, Transition} }

func (k Kind) String() string {
	switch k {
	case GroundRoll:
		return "initial_run"
	case Rotation:
		return "rotation"
	case Transition:
		return "transition"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Next returns the phase that follows k. Transition is terminal.
func (k Kind) Next() (Kind, bool) {
	switch k {
	case GroundRoll:
		return Rotation, true
	case Rotation:
		return Transition, true
	default:
		return k, false
	}
}

func (k Kind) Valid() bool { return k >= GroundRoll && k <= Transition }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

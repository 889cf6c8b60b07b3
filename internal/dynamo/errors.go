package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for model assembly and evaluation.
var (
	// ErrConfig indicates a problem definition that cannot be assembled.
	ErrConfig = errors.New("dynamo: invalid configuration")

	// ErrDomain indicates a node value outside a component's physical domain.
	ErrDomain = errors.New("dynamo: value outside physical domain")

	// ErrNonFinite indicates an evaluation produced NaN or Inf.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")

	// ErrMissingInput indicates a declared input was not supplied.
	ErrMissingInput = errors.New("dynamo: missing input")

	// ErrDimensionMismatch indicates an input vector of the wrong length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between input and node count")

	// ErrNoPartials indicates a component without a derivative provider.
	ErrNoPartials = errors.New("dynamo: component publishes no partials")
)

// ConfigError is raised at assembly time, before any numerical evaluation.
type ConfigError struct {
	Phase     string
	Component string
	Variable  string
	Reason    string
}

func (e *ConfigError) Error() string {
	var parts []string
	if e.Phase != "" {
		parts = append(parts, "phase "+e.Phase)
	}
	if e.Component != "" {
		parts = append(parts, "component "+e.Component)
	}
	if e.Variable != "" {
		parts = append(parts, "variable "+e.Variable)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%v: %s", ErrConfig, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrConfig, strings.Join(parts, ", "), e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// EvalError wraps an evaluation failure with the offending phase, component,
// node and variable. Node is -1 when the failure is not tied to one node.
type EvalError struct {
	Phase     string
	Component string
	Node      int
	Variable  string
	Value     float64
	Err       error
}

func (e *EvalError) Error() string {
	where := e.Component
	if e.Phase != "" {
		where = e.Phase + "/" + e.Component
	}
	if e.Node < 0 {
		return fmt.Sprintf("%s: %s (%s = %g)", where, e.Err, e.Variable, e.Value)
	}
	return fmt.Sprintf("%s: node %d: %s (%s = %g)", where, e.Node, e.Err, e.Variable, e.Value)
}

func (e *EvalError) Unwrap() error { return e.Err }

// DomainError reports that input variable is out of domain at node i.
func DomainError(component string, node int, variable string, value float64) error {
	return &EvalError{Component: component, Node: node, Variable: variable, Value: value, Err: ErrDomain}
}

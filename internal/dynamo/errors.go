package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a position or velocity containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrPhaseOrder indicates a half-step was applied out of kick-drift-kick order.
	ErrPhaseOrder = errors.New("dynamo: integration phase out of order")

	// ErrContextCanceled indicates a scripted run was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Tick    int
	Time    float64
	BodyID  uint64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

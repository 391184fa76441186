package engine

import "errors"

var (
	// ErrModelInputs aborts a whole synthesis request: the loaded model
	// does not declare exactly the phoneme/length/scale input slots, so no
	// sentence could ever run.
	ErrModelInputs = errors.New("model does not declare the three synthesis inputs")

	// ErrMissingInput fails a single run when a declared input was never bound.
	ErrMissingInput = errors.New("required model input not bound")

	// ErrEmptyOutput fails extraction when a completed run produced no output.
	ErrEmptyOutput = errors.New("inference produced no output")

	// ErrOutputType fails extraction when the output is not a float tensor.
	ErrOutputType = errors.New("inference output is not a float tensor")

	// ErrRunInFlight rejects a second run while one is still advancing.
	ErrRunInFlight = errors.New("inference run already in flight")

	// ErrSessionClosed rejects use of a torn-down session.
	ErrSessionClosed = errors.New("inference session closed")
)

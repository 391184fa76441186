package engine

import "fmt"

// ExtractSamples validates an inference output and materializes it as a flat
// sample run. It performs no resampling or filtering, only shape and type
// validation: a nil output fails with ErrEmptyOutput, a non-float element
// type with ErrOutputType.
func ExtractSamples(t *Tensor) ([]float32, error) {
	if t == nil {
		return nil, ErrEmptyOutput
	}
	if t.Type != TypeFloat32 {
		return nil, fmt.Errorf("%w: got %s", ErrOutputType, t.Type)
	}
	return t.F32, nil
}

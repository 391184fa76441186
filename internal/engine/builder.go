package engine

import "fmt"

// Controls are the scalar synthesis controls applied to every sentence of a
// request: playback speed, pitch shift, and glottal tension.
type Controls struct {
	Speed   float32
	Pitch   float32
	Glottal float32
}

// BoundInput pairs a declared input name with the tensor to bind to it.
type BoundInput struct {
	Name   string
	Tensor *Tensor
}

// BuildInputs maps a phoneme id sequence and synthesis controls onto the
// model's first three declared inputs, by position: ids as a (1,N) int64
// tensor, the sequence length as a single-element int64 tensor, and the
// controls as a 3-element float tensor ordered [speed, pitch, glottal].
// It performs no numeric transformation of the ids.
//
// The model must declare at least three inputs; fewer fails the whole
// request with ErrModelInputs. An empty id sequence fails only this
// sentence.
func BuildInputs(inputs []InputInfo, ids []int64, c Controls) ([]BoundInput, error) {
	if len(inputs) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrModelInputs, len(inputs))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty phoneme sequence")
	}

	n := int64(len(ids))
	return []BoundInput{
		{Name: inputs[0].Name, Tensor: Int64Tensor([]int64{1, n}, ids)},
		{Name: inputs[1].Name, Tensor: Int64Tensor([]int64{1}, []int64{n})},
		{Name: inputs[2].Name, Tensor: Float32Tensor([]int64{3}, []float32{c.Speed, c.Pitch, c.Glottal})},
	}, nil
}

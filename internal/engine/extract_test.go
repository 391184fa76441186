package engine

import (
	"errors"
	"testing"
)

func TestExtractSamplesNil(t *testing.T) {
	if _, err := ExtractSamples(nil); !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestExtractSamplesTypeMismatch(t *testing.T) {
	out := Int64Tensor([]int64{3}, []int64{1, 2, 3})
	if _, err := ExtractSamples(out); !errors.Is(err, ErrOutputType) {
		t.Fatalf("expected ErrOutputType, got %v", err)
	}
}

func TestExtractSamplesFlat(t *testing.T) {
	out := Float32Tensor([]int64{1, 1, 4}, []float32{0.1, 0.2, 0.3, 0.4})
	samples, err := ExtractSamples(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 4 || samples[0] != 0.1 || samples[3] != 0.4 {
		t.Fatalf("unexpected samples: %v", samples)
	}
}

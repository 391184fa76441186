package engine

import (
	"errors"
	"testing"
)

func threeInputs() []InputInfo {
	return []InputInfo{
		{Name: "input", Type: TypeInt64},
		{Name: "input_lengths", Type: TypeInt64},
		{Name: "scales", Type: TypeFloat32},
	}
}

func TestBuildInputsShapes(t *testing.T) {
	bound, err := BuildInputs(threeInputs(), []int64{4, 7, 9}, Controls{Speed: 1.0, Pitch: 1.0, Glottal: 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bound) != 3 {
		t.Fatalf("expected 3 bound inputs, got %d", len(bound))
	}

	ids := bound[0].Tensor
	if ids.Type != TypeInt64 || len(ids.Shape) != 2 || ids.Shape[0] != 1 || ids.Shape[1] != 3 {
		t.Fatalf("unexpected ids tensor: type=%s shape=%v", ids.Type, ids.Shape)
	}
	if ids.I64[0] != 4 || ids.I64[1] != 7 || ids.I64[2] != 9 {
		t.Fatalf("ids transformed: %v", ids.I64)
	}

	length := bound[1].Tensor
	if length.Type != TypeInt64 || len(length.Shape) != 1 || length.Shape[0] != 1 || length.I64[0] != 3 {
		t.Fatalf("unexpected length tensor: shape=%v data=%v", length.Shape, length.I64)
	}

	scales := bound[2].Tensor
	if scales.Type != TypeFloat32 || len(scales.Shape) != 1 || scales.Shape[0] != 3 {
		t.Fatalf("unexpected scales tensor: shape=%v", scales.Shape)
	}
	if scales.F32[0] != 1.0 || scales.F32[1] != 1.0 || scales.F32[2] != 0.8 {
		t.Fatalf("expected [speed, pitch, glottal] order, got %v", scales.F32)
	}
}

func TestBuildInputsPositionalNames(t *testing.T) {
	bound, err := BuildInputs(threeInputs(), []int64{1}, Controls{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound[0].Name != "input" || bound[1].Name != "input_lengths" || bound[2].Name != "scales" {
		t.Fatalf("inputs not bound positionally: %v %v %v", bound[0].Name, bound[1].Name, bound[2].Name)
	}
}

func TestBuildInputsTooFewDeclared(t *testing.T) {
	_, err := BuildInputs(threeInputs()[:2], []int64{1, 2}, Controls{})
	if !errors.Is(err, ErrModelInputs) {
		t.Fatalf("expected ErrModelInputs, got %v", err)
	}
}

func TestBuildInputsEmptySequence(t *testing.T) {
	_, err := BuildInputs(threeInputs(), nil, Controls{})
	if err == nil {
		t.Fatal("expected error for empty phoneme sequence")
	}
	if errors.Is(err, ErrModelInputs) {
		t.Fatal("empty sentence must not abort the whole request")
	}
}

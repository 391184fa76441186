package synth

import (
	"errors"
	"reflect"
	"testing"
)

func TestAssemblerConcatenatesInOrder(t *testing.T) {
	var asm Assembler
	asm.Append([]float32{0.1, 0.2})
	asm.Append([]float32{0.3})
	asm.Append([]float32{0.4, 0.5})

	waveform, err := asm.Waveform()
	if err != nil {
		t.Fatalf("waveform: %v", err)
	}
	want := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	if !reflect.DeepEqual(waveform, want) {
		t.Fatalf("waveform = %v, want %v", waveform, want)
	}
	if asm.Runs() != 3 {
		t.Fatalf("runs = %d, want 3", asm.Runs())
	}
}

func TestAssemblerNoRunsIsNoAudio(t *testing.T) {
	var asm Assembler
	if _, err := asm.Waveform(); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestAssemblerZeroLengthRunCounts(t *testing.T) {
	var asm Assembler
	asm.Append(nil)

	waveform, err := asm.Waveform()
	if err != nil {
		t.Fatalf("zero-length run should not be ErrNoAudio: %v", err)
	}
	if len(waveform) != 0 {
		t.Fatalf("waveform = %v, want empty", waveform)
	}
}

func TestAssemblerDeterministic(t *testing.T) {
	build := func() []float32 {
		var asm Assembler
		asm.Append([]float32{1, 2})
		asm.Append([]float32{3})
		out, err := asm.Waveform()
		if err != nil {
			t.Fatalf("waveform: %v", err)
		}
		return out
	}
	if !reflect.DeepEqual(build(), build()) {
		t.Fatal("assembly is not deterministic")
	}
}

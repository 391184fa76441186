package audioclip

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPCM16Conversion(t *testing.T) {
	pcm := PCM16([]float32{0, 1.0, -1.0, 2.0})
	if len(pcm) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(pcm))
	}
	if v := int16(binary.LittleEndian.Uint16(pcm[0:])); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(pcm[2:])); v != 32767 {
		t.Fatalf("expected 32767, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(pcm[4:])); v != -32767 {
		t.Fatalf("expected -32767, got %d", v)
	}
	// Out-of-range input clamps instead of wrapping.
	if v := int16(binary.LittleEndian.Uint16(pcm[6:])); v != 32767 {
		t.Fatalf("expected clamped 32767, got %d", v)
	}
}

func TestClipDuration(t *testing.T) {
	clip := New(make([]float32, 22050), 1, 22050)
	if clip.Duration() != time.Second {
		t.Fatalf("expected 1s, got %v", clip.Duration())
	}
}

func TestWriteFileProducesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	clip := New([]float32{0.5, -0.5, 0.25, 0}, 1, 22050)
	if err := clip.WriteFile(path); err != nil {
		t.Fatalf("write file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(data) < 44 {
		t.Fatalf("wav too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("not a wav header: %q %q", data[0:4], data[8:12])
	}
}

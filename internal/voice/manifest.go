// Package voice loads Piper-style voice models: an ONNX graph plus a JSON
// sidecar manifest describing its audio format and synthesis defaults.
package voice

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest is the JSON sidecar shipped next to a voice model, conventionally
// at <model>.onnx.json.
type Manifest struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Espeak struct {
		Voice string `json:"voice"`
	} `json:"espeak"`
	Inference struct {
		NoiseScale  float32 `json:"noise_scale"`
		LengthScale float32 `json:"length_scale"`
		NoiseW      float32 `json:"noise_w"`
	} `json:"inference"`
	NumSpeakers int    `json:"num_speakers"`
	Language    string `json:"language,omitempty"`
}

// LoadManifest reads a voice manifest from disk.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse voice manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate ensures a manifest carries the fields synthesis depends on.
func Validate(m Manifest) error {
	if m.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if m.Espeak.Voice == "" {
		return fmt.Errorf("espeak.voice is required")
	}
	if m.NumSpeakers < 0 {
		return fmt.Errorf("num_speakers must be >= 0")
	}
	return nil
}

// Package audioclip packages a synthesized waveform for playback or export.
package audioclip

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip wraps one finished waveform with its playback format.
type Clip struct {
	samples    []float32
	channels   int
	sampleRate int
}

// New creates a clip over samples. channels defaults to mono when zero.
func New(samples []float32, channels, sampleRate int) *Clip {
	if channels <= 0 {
		channels = 1
	}
	return &Clip{samples: samples, channels: channels, sampleRate: sampleRate}
}

// Samples returns the raw float samples.
func (c *Clip) Samples() []float32 { return c.samples }

// SampleRate returns the playback rate in Hz.
func (c *Clip) SampleRate() int { return c.sampleRate }

// Channels returns the channel count.
func (c *Clip) Channels() int { return c.channels }

// Duration reports the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.sampleRate <= 0 || c.channels <= 0 {
		return 0
	}
	frames := len(c.samples) / c.channels
	return time.Duration(frames) * time.Second / time.Duration(c.sampleRate)
}

// PCM16 converts the float samples to 16-bit little-endian PCM, clamping to
// [-1, 1].
func (c *Clip) PCM16() []byte {
	return PCM16(c.samples)
}

// PCM16 converts float samples to 16-bit little-endian PCM.
func PCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(clamped*32767)))
	}
	return out
}

// EncodeWAV writes the clip as a 16-bit PCM WAV stream.
func (c *Clip) EncodeWAV(w io.WriteSeeker) error {
	if c.sampleRate <= 0 {
		return fmt.Errorf("clip has no sample rate")
	}
	data := make([]int, len(c.samples))
	for i, s := range c.samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		data[i] = int(clamped * 32767)
	}
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: c.channels, SampleRate: c.sampleRate},
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(w, c.sampleRate, 16, c.channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteFile writes the clip to path as a WAV file.
func (c *Clip) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return c.EncodeWAV(file)
}

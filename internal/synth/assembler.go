package synth

import "errors"

// ErrNoAudio is the distinguished outcome when a request yields zero sample
// runs: every sentence was skipped, failed, or the phoneme result was empty.
// Callers must not confuse it with a zero-length waveform success.
var ErrNoAudio = errors.New("no audio produced")

// Assembler concatenates per-sentence sample runs, in the order they are
// appended, into one contiguous waveform. No cross-fading, normalization, or
// resampling happens here.
type Assembler struct {
	runs  int
	total int
	parts [][]float32
}

// Append records one sentence's sample run. A zero-length run still counts
// as produced audio.
func (a *Assembler) Append(run []float32) {
	a.runs++
	a.total += len(run)
	a.parts = append(a.parts, run)
}

// Runs reports how many sample runs were appended.
func (a *Assembler) Runs() int { return a.runs }

// Waveform returns the concatenated samples, or ErrNoAudio when no run was
// ever appended.
func (a *Assembler) Waveform() ([]float32, error) {
	if a.runs == 0 {
		return nil, ErrNoAudio
	}
	out := make([]float32, 0, a.total)
	for _, part := range a.parts {
		out = append(out, part...)
	}
	return out, nil
}

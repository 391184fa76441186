package phoneme

import "context"

// Sentence is one phonemized unit of input text: an ordered sequence of
// phoneme ids, synthesized independently and concatenated in index order.
type Sentence struct {
	Index int     `json:"index"`
	IDs   []int64 `json:"ids"`
}

// Result holds the ordered sentences for one synthesis request. An empty
// result is a valid "nothing to synthesize" outcome, not an error.
type Result struct {
	Sentences []Sentence `json:"sentences"`
}

// Phonemizer converts raw text into phoneme id sequences for a voice.
type Phonemizer interface {
	Phonemize(ctx context.Context, text, voice string) (*Result, error)
	Close() error
}

package phoneme

import (
	"context"
	"strings"
)

type mockPhonemizer struct{}

// NewMockPhonemizer returns a phonemizer that derives ids directly from the
// input runes. Deterministic, voice-independent, useful for development and
// tests without espeak data installed.
func NewMockPhonemizer() Phonemizer {
	return mockPhonemizer{}
}

func (mockPhonemizer) Phonemize(_ context.Context, text, _ string) (*Result, error) {
	result := &Result{}
	for _, raw := range strings.FieldsFunc(text, isSentenceBreak) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var ids []int64
		for _, r := range raw {
			ids = append(ids, int64(r))
		}
		result.Sentences = append(result.Sentences, Sentence{Index: len(result.Sentences), IDs: ids})
	}
	return result, nil
}

func (mockPhonemizer) Close() error { return nil }

func isSentenceBreak(r rune) bool {
	switch r {
	case '.', '!', '?', ';':
		return true
	}
	return false
}

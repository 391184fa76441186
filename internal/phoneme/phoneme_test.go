package phoneme

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMockPhonemizerSplitsSentences(t *testing.T) {
	p := NewMockPhonemizer()
	result, err := p.Phonemize(context.Background(), "Hi there. Bye!", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(result.Sentences))
	}
	if result.Sentences[0].Index != 0 || result.Sentences[1].Index != 1 {
		t.Fatal("sentence indexes not sequential")
	}
	if len(result.Sentences[0].IDs) == 0 {
		t.Fatal("expected phoneme ids for first sentence")
	}
}

func TestMockPhonemizerDeterministic(t *testing.T) {
	p := NewMockPhonemizer()
	a, _ := p.Phonemize(context.Background(), "Same text.", "en")
	b, _ := p.Phonemize(context.Background(), "Same text.", "en")
	if len(a.Sentences) != len(b.Sentences) {
		t.Fatal("sentence counts differ")
	}
	for i := range a.Sentences {
		if len(a.Sentences[i].IDs) != len(b.Sentences[i].IDs) {
			t.Fatalf("sentence %d id counts differ", i)
		}
		for j := range a.Sentences[i].IDs {
			if a.Sentences[i].IDs[j] != b.Sentences[i].IDs[j] {
				t.Fatalf("sentence %d id %d differs", i, j)
			}
		}
	}
}

func TestMockPhonemizerEmptyText(t *testing.T) {
	p := NewMockPhonemizer()
	result, err := p.Phonemize(context.Background(), "   ", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sentences) != 0 {
		t.Fatalf("expected no sentences, got %d", len(result.Sentences))
	}
}

func TestHTTPPhonemizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/phonemize" {
			http.NotFound(w, r)
			return
		}
		var req httpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(Result{Sentences: []Sentence{
			{IDs: []int64{1, 2, 3}},
			{IDs: []int64{4, 5}},
		}})
	}))
	defer srv.Close()

	p := NewHTTPPhonemizer(srv.URL)
	result, err := p.Phonemize(context.Background(), "hello", "en-us")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(result.Sentences))
	}
	if result.Sentences[1].Index != 1 {
		t.Fatalf("expected reindexed sentences, got %d", result.Sentences[1].Index)
	}
}

func TestHTTPPhonemizerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such voice", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPPhonemizer(srv.URL)
	if _, err := p.Phonemize(context.Background(), "hello", "xx"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

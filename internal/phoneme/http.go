package phoneme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type httpPhonemizer struct {
	endpoint string
	client   *http.Client
}

type httpRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// NewHTTPPhonemizer talks to a remote phonemizer service exposing a
// /phonemize endpoint that accepts {text, voice} and returns a Result.
func NewHTTPPhonemizer(endpoint string) Phonemizer {
	return &httpPhonemizer{endpoint: endpoint, client: http.DefaultClient}
}

func (h *httpPhonemizer) Phonemize(ctx context.Context, text, voice string) (*Result, error) {
	body, err := json.Marshal(httpRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/phonemize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("phonemizer returned status %s", resp.Status)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode phonemizer response: %w", err)
	}
	for i := range result.Sentences {
		result.Sentences[i].Index = i
	}
	return &result, nil
}

func (h *httpPhonemizer) Close() error { return nil }

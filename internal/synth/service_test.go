package synth

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/MarzLars/piperd/internal/config"
	"github.com/MarzLars/piperd/internal/engine"
	"github.com/MarzLars/piperd/internal/phoneme"
	"github.com/MarzLars/piperd/internal/protocol"
	"github.com/MarzLars/piperd/internal/voice"
)

func newTestService(t *testing.T, cfg config.SynthConfig) *Service {
	t.Helper()
	return NewService(context.Background(), cfg, nil, nil, nil, nil, newLogger())
}

// strictSession mirrors the live session contract: binds are consumed by Run,
// every declared input must be bound, and only one run may be in flight. The
// produced waveform echoes the bound phoneme ids so tests can tell whose
// request an output belongs to.
type strictSession struct {
	mu      sync.Mutex
	inputs  []engine.InputInfo
	bound   map[string]*engine.Tensor
	running bool
	output  *engine.Tensor
}

func (s *strictSession) Inputs() []engine.InputInfo { return s.inputs }

func (s *strictSession) Bind(name string, t *engine.Tensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound == nil {
		s.bound = make(map[string]*engine.Tensor)
	}
	s.bound[name] = t
}

func (s *strictSession) Run(ctx context.Context) (engine.Stepper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, engine.ErrRunInFlight
	}
	bound := s.bound
	s.bound = nil
	for _, in := range s.inputs {
		if bound[in.Name] == nil {
			return nil, engine.ErrMissingInput
		}
	}
	ids := bound["input"].I64
	samples := make([]float32, len(ids))
	for i, id := range ids {
		samples[i] = float32(id)
	}
	s.output = engine.Float32Tensor([]int64{1, 1, int64(len(samples))}, samples)
	s.running = true
	return &strictStepper{s: s, remaining: 3}, nil
}

func (s *strictSession) Output() (*engine.Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output, nil
}

func (s *strictSession) Close() error { return nil }

type strictStepper struct {
	s         *strictSession
	remaining int
}

func (st *strictStepper) Step(ctx context.Context) (bool, error) {
	st.remaining--
	if st.remaining > 0 {
		return false, nil
	}
	st.s.mu.Lock()
	st.s.running = false
	st.s.mu.Unlock()
	return true, nil
}

func TestConcurrentRequestsSameVoiceTakeTurns(t *testing.T) {
	svc := newTestService(t, config.SynthConfig{})
	v := &voice.Voice{Name: "shared", Session: &strictSession{inputs: modelInputs()}}
	controls := engine.Controls{Speed: 1, Pitch: 1, Glottal: 0.8}

	requests := [][]int64{{1, 2, 3}, {4, 5}, {6}, {7, 8, 9, 10}}
	waveforms := make([][]float32, len(requests))
	errs := make([]error, len(requests))

	var wg sync.WaitGroup
	for i, ids := range requests {
		wg.Add(1)
		go func(i int, ids []int64) {
			defer wg.Done()
			result := &phoneme.Result{Sentences: []phoneme.Sentence{{Index: 0, IDs: ids}}}
			outcome, err := svc.render(context.Background(), v, result, controls, newLogger())
			waveforms[i], errs[i] = outcome.Waveform, err
		}(i, ids)
	}
	wg.Wait()

	for i, ids := range requests {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		want := make([]float32, len(ids))
		for j, id := range ids {
			want[j] = float32(id)
		}
		if !reflect.DeepEqual(waveforms[i], want) {
			t.Fatalf("request %d waveform = %v, want %v", i, waveforms[i], want)
		}
	}
}

func TestChunksSplitAndMarkFinal(t *testing.T) {
	// 2ms at 1kHz is 2 samples per chunk.
	svc := newTestService(t, config.SynthConfig{SampleRate: 1000, Channels: 1, ChunkDurationMS: 2})

	waveform := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	chunks := svc.chunks(protocol.SynthesisRequest{SessionID: "sess"}, waveform)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantBytes := []int{4, 4, 2}
	for i, chunk := range chunks {
		if chunk.Sequence != i {
			t.Fatalf("chunk %d has sequence %d", i, chunk.Sequence)
		}
		if len(chunk.PCM) != wantBytes[i] {
			t.Fatalf("chunk %d has %d PCM bytes, want %d", i, len(chunk.PCM), wantBytes[i])
		}
		if chunk.Final != (i == len(chunks)-1) {
			t.Fatalf("chunk %d has Final=%v", i, chunk.Final)
		}
	}
}

func TestChunksEmptyWaveformStillFinal(t *testing.T) {
	svc := newTestService(t, config.SynthConfig{SampleRate: 22050, Channels: 1, ChunkDurationMS: 400})

	chunks := svc.chunks(protocol.SynthesisRequest{SessionID: "sess"}, nil)
	if len(chunks) != 1 {
		t.Fatalf("expected one terminating chunk, got %d", len(chunks))
	}
	if !chunks[0].Final {
		t.Fatal("empty waveform must still publish a final chunk")
	}
	if len(chunks[0].PCM) != 0 {
		t.Fatalf("expected empty PCM, got %d bytes", len(chunks[0].PCM))
	}
	if chunks[0].SampleRate != 22050 || chunks[0].Channels != 1 {
		t.Fatalf("chunk metadata missing: %+v", chunks[0])
	}
}

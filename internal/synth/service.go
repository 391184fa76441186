package synth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MarzLars/piperd/internal/audioclip"
	"github.com/MarzLars/piperd/internal/bus"
	"github.com/MarzLars/piperd/internal/config"
	"github.com/MarzLars/piperd/internal/engine"
	"github.com/MarzLars/piperd/internal/history"
	"github.com/MarzLars/piperd/internal/phoneme"
	"github.com/MarzLars/piperd/internal/protocol"
	"github.com/MarzLars/piperd/internal/voice"
)

// Service answers synthesis requests on the bus. Each request is rendered on
// its own goroutine: text is phonemized, every sentence is pushed through the
// voice's inference session, and the assembled waveform is streamed back as
// PCM chunks followed by a status message.
type Service struct {
	cfg        config.SynthConfig
	bus        *bus.Client
	voices     *voice.Cache
	phonemizer phoneme.Phonemizer
	store      *history.Store
	sub        *nats.Subscription
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger

	requestCounter metric.Int64Counter
	skippedCounter metric.Int64Counter
	sampleCounter  metric.Int64Counter
}

func NewService(parent context.Context, cfg config.SynthConfig, busClient *bus.Client, voices *voice.Cache, phonemizer phoneme.Phonemizer, store *history.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:        cfg,
		bus:        busClient,
		voices:     voices,
		phonemizer: phonemizer,
		store:      store,
		ctx:        ctx,
		cancel:     cancel,
		logger:     log.With(slog.String("component", "synth-service")),
	}
	s.initMetrics()
	return s
}

func (s *Service) initMetrics() {
	meter := otel.Meter("github.com/MarzLars/piperd/synth")
	var err error
	if s.requestCounter, err = meter.Int64Counter("piperd.synth.requests", metric.WithDescription("Synthesis requests handled")); err != nil {
		s.logger.Warn("failed to create request counter", slogError(err))
	}
	if s.skippedCounter, err = meter.Int64Counter("piperd.synth.sentences_skipped", metric.WithDescription("Sentences skipped during synthesis")); err != nil {
		s.logger.Warn("failed to create skip counter", slogError(err))
	}
	if s.sampleCounter, err = meter.Int64Counter("piperd.synth.samples", metric.WithDescription("Audio samples produced")); err != nil {
		s.logger.Warn("failed to create sample counter", slogError(err))
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSynthesize, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SynthesisRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode synthesis request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, 45*time.Second)
		defer cancel()

		s.synthesize(ctx, req)
	}()
}

func (s *Service) synthesize(ctx context.Context, req protocol.SynthesisRequest) {
	requestID := uuid.NewString()
	started := time.Now()

	voiceName := req.Voice
	if voiceName == "" {
		voiceName = s.cfg.Voice
	}
	log := s.logger.With(
		slog.String("request", requestID),
		slog.String("voice", voiceName))

	v, err := s.voices.Get(voiceName)
	if err != nil {
		log.Warn("voice unavailable", slogError(err))
		s.publishStatus(req, Outcome{}, err)
		s.countRequest(voiceName, "voice_unavailable")
		return
	}

	result, err := s.phonemizer.Phonemize(ctx, req.Text, voiceName)
	if err != nil {
		log.Warn("phonemization failed", slogError(err))
		s.publishStatus(req, Outcome{}, err)
		s.countRequest(voiceName, "phonemize_failed")
		return
	}

	outcome, err := s.render(ctx, v, result, s.controls(req), log)
	if err != nil {
		if errors.Is(err, ErrNoAudio) {
			log.Info("request produced no audio")
		} else {
			log.Warn("synthesis failed", slogError(err))
		}
		s.publishStatus(req, outcome, err)
		s.countRequest(voiceName, "failed")
		s.recordHistory(requestID, req, voiceName, outcome, started)
		return
	}

	s.publishWaveform(req, outcome.Waveform)
	s.publishStatus(req, outcome, nil)
	s.countRequest(voiceName, "ok")
	if s.skippedCounter != nil && outcome.Skipped > 0 {
		s.skippedCounter.Add(s.ctx, int64(outcome.Skipped), metric.WithAttributes(attribute.String("voice", voiceName)))
	}
	if s.sampleCounter != nil {
		s.sampleCounter.Add(s.ctx, int64(len(outcome.Waveform)))
	}
	s.recordHistory(requestID, req, voiceName, outcome, started)

	log.Info("synthesis complete",
		slog.Int("sentences", outcome.Sentences),
		slog.Int("skipped", outcome.Skipped),
		slog.Int("samples", len(outcome.Waveform)),
		slog.Duration("elapsed", time.Since(started)))
}

// render drives one request through the voice's pipeline. A voice's session
// holds a single bind set and admits one in-flight run, so passes over the
// same voice are serialized; requests for different voices stay concurrent.
func (s *Service) render(ctx context.Context, v *voice.Voice, result *phoneme.Result, controls engine.Controls, log *slog.Logger) (Outcome, error) {
	v.Lock()
	defer v.Unlock()
	return NewScheduler(v.Session, controls, log).Synthesize(ctx, result)
}

// controls merges request overrides onto the configured defaults. A zero
// value in the request means "not set".
func (s *Service) controls(req protocol.SynthesisRequest) engine.Controls {
	c := engine.Controls{
		Speed:   float32(s.cfg.Speed),
		Pitch:   float32(s.cfg.Pitch),
		Glottal: float32(s.cfg.Glottal),
	}
	if req.Speed > 0 {
		c.Speed = float32(req.Speed)
	}
	if req.Pitch > 0 {
		c.Pitch = float32(req.Pitch)
	}
	if req.Glottal > 0 {
		c.Glottal = float32(req.Glottal)
	}
	return c
}

func (s *Service) publishWaveform(req protocol.SynthesisRequest, waveform []float32) {
	for _, chunk := range s.chunks(req, waveform) {
		data, err := json.Marshal(chunk)
		if err != nil {
			s.logger.Warn("failed to marshal audio chunk", slogError(err))
			return
		}
		if err := s.bus.Conn().Publish(protocol.SubjectAudio, data); err != nil {
			s.logger.Warn("failed to publish audio chunk", slogError(err))
			return
		}
	}
}

// chunks slices the waveform into sequenced PCM chunks of the configured
// duration. A successful request always yields at least one chunk with Final
// set, even when every run was zero-length, so consumers waiting on the final
// chunk never stall.
func (s *Service) chunks(req protocol.SynthesisRequest, waveform []float32) []protocol.AudioChunk {
	chunkSamples := s.cfg.SampleRate * s.cfg.ChunkDurationMS / 1000
	if chunkSamples <= 0 {
		chunkSamples = len(waveform)
	}

	var out []protocol.AudioChunk
	offset := 0
	for {
		end := offset + chunkSamples
		if end >= len(waveform) {
			end = len(waveform)
		}
		out = append(out, protocol.AudioChunk{
			SessionID:  req.SessionID,
			Target:     req.Target,
			SampleRate: s.cfg.SampleRate,
			Channels:   s.cfg.Channels,
			Sequence:   len(out),
			PCM:        audioclip.PCM16(waveform[offset:end]),
			Final:      end == len(waveform),
		})
		if end == len(waveform) {
			return out
		}
		offset = end
	}
}

func (s *Service) publishStatus(req protocol.SynthesisRequest, outcome Outcome, synthErr error) {
	status := protocol.SynthesisStatus{
		SessionID: req.SessionID,
		Target:    req.Target,
		Completed: synthErr == nil,
		Sentences: outcome.Sentences,
		Skipped:   outcome.Skipped,
		Samples:   len(outcome.Waveform),
		Timestamp: time.Now().UTC(),
	}
	if synthErr != nil {
		status.Reason = synthErr.Error()
	}
	data, err := json.Marshal(status)
	if err != nil {
		s.logger.Warn("failed to marshal status", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectDone, data); err != nil {
		s.logger.Warn("failed to publish status", slogError(err))
	}
}

func (s *Service) countRequest(voiceName, result string) {
	if s.requestCounter == nil {
		return
	}
	s.requestCounter.Add(s.ctx, 1, metric.WithAttributes(
		attribute.String("voice", voiceName),
		attribute.String("result", result)))
}

func (s *Service) recordHistory(requestID string, req protocol.SynthesisRequest, voiceName string, outcome Outcome, started time.Time) {
	if s.store == nil {
		return
	}
	entry := history.Entry{
		RequestID: requestID,
		SessionID: req.SessionID,
		Voice:     voiceName,
		Sentences: outcome.Sentences,
		Skipped:   outcome.Skipped,
		Samples:   len(outcome.Waveform),
		Duration:  time.Since(started),
	}
	if err := s.store.Record(s.ctx, entry); err != nil {
		s.logger.Warn("failed to record request history", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}

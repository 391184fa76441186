package synth

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/MarzLars/piperd/internal/engine"
	"github.com/MarzLars/piperd/internal/phoneme"
)

// Scheduler drives one synthesis request through the inference pipeline,
// sentence by sentence in strict index order. A failing sentence is skipped
// and logged; only structural failures (absent phoneme result, a model whose
// input slots cannot carry a request) abort the whole request.
type Scheduler struct {
	session  engine.Session
	controls engine.Controls
	logger   *slog.Logger

	// Yield hands control back to the host between inference steps, once per
	// advanced step. Defaults to runtime.Gosched.
	Yield func()
}

// Outcome summarizes one synthesis request.
type Outcome struct {
	Waveform  []float32
	Sentences int
	Skipped   int
}

func NewScheduler(session engine.Session, controls engine.Controls, log *slog.Logger) *Scheduler {
	return &Scheduler{
		session:  session,
		controls: controls,
		logger:   log.With(slog.String("component", "sentence-scheduler")),
		Yield:    runtime.Gosched,
	}
}

// Synthesize runs every sentence of result through the pipeline and
// assembles the surviving sample runs into one waveform. It returns
// ErrNoAudio when nothing was produced and engine.ErrModelInputs before any
// sentence runs if the model's input slots cannot carry a request.
func (s *Scheduler) Synthesize(ctx context.Context, result *phoneme.Result) (Outcome, error) {
	out := Outcome{}
	if result == nil || len(result.Sentences) == 0 {
		return out, ErrNoAudio
	}
	out.Sentences = len(result.Sentences)

	// Every declared input must be bound before a run, and requests can only
	// fill the three phoneme/length/scale slots. Any other input count means
	// no sentence could ever succeed, so abort before the first one.
	inputs := s.session.Inputs()
	if len(inputs) != 3 {
		return out, engine.ErrModelInputs
	}

	var asm Assembler
	for _, sent := range result.Sentences {
		if len(sent.IDs) == 0 {
			out.Skipped++
			s.logger.Warn("skipping empty sentence", slog.Int("sentence", sent.Index))
			continue
		}

		run, err := s.synthesizeSentence(ctx, inputs, sent)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.Skipped++
			s.logger.Warn("sentence synthesis failed",
				slog.Int("sentence", sent.Index),
				slog.String("error", err.Error()))
			continue
		}
		asm.Append(run)
	}

	waveform, err := asm.Waveform()
	if err != nil {
		return out, err
	}
	out.Waveform = waveform
	return out, nil
}

func (s *Scheduler) synthesizeSentence(ctx context.Context, inputs []engine.InputInfo, sent phoneme.Sentence) ([]float32, error) {
	bound, err := engine.BuildInputs(inputs, sent.IDs, s.controls)
	if err != nil {
		return nil, err
	}
	for _, b := range bound {
		s.session.Bind(b.Name, b.Tensor)
	}

	step, err := s.session.Run(ctx)
	if err != nil {
		return nil, err
	}
	for {
		done, err := step.Step(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		s.Yield()
	}

	output, err := s.session.Output()
	if err != nil {
		return nil, err
	}
	return engine.ExtractSamples(output)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MarzLars/piperd/internal/audioclip"
	"github.com/MarzLars/piperd/internal/config"
	"github.com/MarzLars/piperd/internal/engine"
	"github.com/MarzLars/piperd/internal/phoneme"
	"github.com/MarzLars/piperd/internal/synth"
	"github.com/MarzLars/piperd/internal/voice"
)

var version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'say', 'validate' or 'version'")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "say":
		if err := runSay(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "validate":
		if err := runValidate(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("manifest valid")
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

// runSay renders one utterance to a WAV file without going through the bus.
func runSay(args []string) error {
	var (
		configPath string
		voiceName  string
		outPath    string
	)
	sayCmd := flag.NewFlagSet("say", flag.ExitOnError)
	sayCmd.StringVar(&configPath, "config", "piperd.yaml", "Path to configuration file")
	sayCmd.StringVar(&voiceName, "voice", "", "Voice name, defaults to the configured voice")
	sayCmd.StringVar(&outPath, "out", "out.wav", "Output WAV path")
	sayCmd.Parse(args)

	text := strings.TrimSpace(strings.Join(sayCmd.Args(), " "))
	if text == "" {
		return fmt.Errorf("nothing to say: pass text after the flags")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if voiceName == "" {
		voiceName = cfg.Synth.Voice
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend, err := engine.ParseBackend(cfg.Engine.Backend)
	if err != nil {
		return err
	}
	if err := engine.Initialize(cfg.Engine.LibraryPath); err != nil {
		return err
	}
	defer engine.Shutdown()

	stepInterval := time.Duration(cfg.Engine.StepIntervalMS) * time.Millisecond
	opener := func(modelPath string, _ voice.Manifest) (engine.Session, error) {
		return engine.OpenONNX(modelPath, backend, stepInterval, logger)
	}
	voices, err := voice.NewCache(cfg.Engine.VoicesDir, 1, opener, logger)
	if err != nil {
		return err
	}
	defer voices.Close()

	v, err := voices.Get(voiceName)
	if err != nil {
		return fmt.Errorf("load voice %s: %w", voiceName, err)
	}

	phonemizer, err := buildPhonemizer(cfg.Phonemizer)
	if err != nil {
		return err
	}
	defer phonemizer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := phonemizer.Phonemize(ctx, text, voiceName)
	if err != nil {
		return fmt.Errorf("phonemize: %w", err)
	}

	controls := engine.Controls{
		Speed:   float32(cfg.Synth.Speed),
		Pitch:   float32(cfg.Synth.Pitch),
		Glottal: float32(cfg.Synth.Glottal),
	}
	scheduler := synth.NewScheduler(v.Session, controls, logger)
	outcome, err := scheduler.Synthesize(ctx, result)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	clip := audioclip.New(outcome.Waveform, cfg.Synth.Channels, cfg.Synth.SampleRate)
	if err := clip.WriteFile(outPath); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("wrote %s: %d samples, %s, %d of %d sentences skipped\n",
		outPath, len(outcome.Waveform), clip.Duration().Round(time.Millisecond), outcome.Skipped, outcome.Sentences)
	return nil
}

func runValidate(args []string) error {
	var manifestPath string
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateCmd.StringVar(&manifestPath, "file", "voice.onnx.json", "Path to voice manifest")
	validateCmd.Parse(args)

	m, err := voice.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	return voice.Validate(m)
}

func buildPhonemizer(cfg config.PhonemizerConfig) (phoneme.Phonemizer, error) {
	switch cfg.Mode {
	case "exec":
		return phoneme.NewExecPhonemizer(cfg.Command, cfg.DataDir)
	case "http":
		return phoneme.NewHTTPPhonemizer(cfg.Endpoint), nil
	case "mock", "":
		return phoneme.NewMockPhonemizer(), nil
	default:
		return nil, fmt.Errorf("unknown phonemizer mode %q", cfg.Mode)
	}
}

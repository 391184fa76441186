package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Synth.SampleRate != 22050 {
		t.Fatalf("expected default sample rate 22050, got %d", cfg.Synth.SampleRate)
	}
	if cfg.Synth.Speed != 1.0 || cfg.Synth.Pitch != 1.0 || cfg.Synth.Glottal != 0.8 {
		t.Fatalf("unexpected default controls: %v %v %v", cfg.Synth.Speed, cfg.Synth.Pitch, cfg.Synth.Glottal)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PIPERD_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("PIPERD_ENGINE_BACKEND", "cuda")
	t.Setenv("PIPERD_ENGINE_CACHE_SIZE", "2")
	t.Setenv("PIPERD_SYNTH_VOICE", "en_GB-alan-low")
	t.Setenv("PIPERD_SYNTH_SAMPLE_RATE", "16000")
	t.Setenv("PIPERD_SYNTH_GLOTTAL", "0.65")
	t.Setenv("PIPERD_HISTORY_RETENTION_MODE", "persistent")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Engine.Backend != "cuda" {
		t.Fatalf("expected backend override, got %s", cfg.Engine.Backend)
	}
	if cfg.Engine.CacheSize != 2 {
		t.Fatalf("expected cache size 2, got %d", cfg.Engine.CacheSize)
	}
	if cfg.Synth.Voice != "en_GB-alan-low" {
		t.Fatalf("expected voice override, got %s", cfg.Synth.Voice)
	}
	if cfg.Synth.SampleRate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", cfg.Synth.SampleRate)
	}
	if cfg.Synth.Glottal != 0.65 {
		t.Fatalf("expected glottal override, got %v", cfg.Synth.Glottal)
	}
	if cfg.History.RetentionMode != "persistent" {
		t.Fatalf("expected retention mode override, got %s", cfg.History.RetentionMode)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("PIPERD_ENGINE_BACKEND", "tpu")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidateRequiresExecCommand(t *testing.T) {
	t.Setenv("PIPERD_PHONEMIZER_MODE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for exec phonemizer without command")
	}
}

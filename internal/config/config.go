package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Node        NodeConfig       `yaml:"node"`
	Phonemizer  PhonemizerConfig `yaml:"phonemizer"`
	Engine      EngineConfig     `yaml:"engine"`
	Synth       SynthConfig      `yaml:"synth"`
	History     HistoryConfig    `yaml:"history"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type NodeConfig struct {
	ID                string `yaml:"id"`
	Role              string `yaml:"role"`
	HeartbeatInterval int    `yaml:"heartbeat_interval_ms"`
	HeartbeatTimeout  int    `yaml:"heartbeat_timeout_ms"`
}

type PhonemizerConfig struct {
	Mode     string `yaml:"mode"` // mock, exec, http
	Command  string `yaml:"command"`
	Endpoint string `yaml:"endpoint"`
	DataDir  string `yaml:"data_dir"`
}

type EngineConfig struct {
	LibraryPath    string `yaml:"library_path"`
	Backend        string `yaml:"backend"` // cpu, cuda, coreml, directml
	VoicesDir      string `yaml:"voices_dir"`
	CacheSize      int    `yaml:"cache_size"`
	StepIntervalMS int    `yaml:"step_interval_ms"`
}

type SynthConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Voice           string  `yaml:"voice"`
	SampleRate      int     `yaml:"sample_rate"`
	Channels        int     `yaml:"channels"`
	ChunkDurationMS int     `yaml:"chunk_duration_ms"`
	Speed           float64 `yaml:"speed"`
	Pitch           float64 `yaml:"pitch"`
	Glottal         float64 `yaml:"glottal"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRequests   int    `yaml:"max_requests"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

func Default() Config {
	return Config{
		RuntimeName: "piperd",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Node: NodeConfig{
			ID:                "piperd-node-1",
			Role:              "synthesizer",
			HeartbeatInterval: 2000,
			HeartbeatTimeout:  6000,
		},
		Phonemizer: PhonemizerConfig{
			Mode:    "mock",
			DataDir: "./data/espeak-ng-data",
		},
		Engine: EngineConfig{
			Backend:        "cpu",
			VoicesDir:      "./voices",
			CacheSize:      4,
			StepIntervalMS: 5,
		},
		Synth: SynthConfig{
			Enabled:         false,
			Voice:           "en_US-lessac-medium",
			SampleRate:      22050,
			Channels:        1,
			ChunkDurationMS: 400,
			Speed:           1.0,
			Pitch:           1.0,
			Glottal:         0.8,
		},
		History: HistoryConfig{
			Path:          "./data/piperd-history.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxRequests:   10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "PIPERD_RUNTIME_NAME")
	overrideString(&cfg.Environment, "PIPERD_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "PIPERD_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "PIPERD_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "PIPERD_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PIPERD_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PIPERD_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "PIPERD_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "PIPERD_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "PIPERD_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "PIPERD_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "PIPERD_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "PIPERD_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "PIPERD_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "PIPERD_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "PIPERD_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Node.ID, "PIPERD_NODE_ID")
	overrideString(&cfg.Node.Role, "PIPERD_NODE_ROLE")
	overrideInt(&cfg.Node.HeartbeatInterval, "PIPERD_NODE_HEARTBEAT_INTERVAL_MS")
	overrideInt(&cfg.Node.HeartbeatTimeout, "PIPERD_NODE_HEARTBEAT_TIMEOUT_MS")
	overrideString(&cfg.Phonemizer.Mode, "PIPERD_PHONEMIZER_MODE")
	overrideString(&cfg.Phonemizer.Command, "PIPERD_PHONEMIZER_COMMAND")
	overrideString(&cfg.Phonemizer.Endpoint, "PIPERD_PHONEMIZER_ENDPOINT")
	overrideString(&cfg.Phonemizer.DataDir, "PIPERD_PHONEMIZER_DATA_DIR")
	overrideString(&cfg.Engine.LibraryPath, "PIPERD_ENGINE_LIBRARY_PATH")
	overrideString(&cfg.Engine.Backend, "PIPERD_ENGINE_BACKEND")
	overrideString(&cfg.Engine.VoicesDir, "PIPERD_ENGINE_VOICES_DIR")
	overrideInt(&cfg.Engine.CacheSize, "PIPERD_ENGINE_CACHE_SIZE")
	overrideInt(&cfg.Engine.StepIntervalMS, "PIPERD_ENGINE_STEP_INTERVAL_MS")
	overrideBool(&cfg.Synth.Enabled, "PIPERD_SYNTH_ENABLED")
	overrideString(&cfg.Synth.Voice, "PIPERD_SYNTH_VOICE")
	overrideInt(&cfg.Synth.SampleRate, "PIPERD_SYNTH_SAMPLE_RATE")
	overrideInt(&cfg.Synth.Channels, "PIPERD_SYNTH_CHANNELS")
	overrideInt(&cfg.Synth.ChunkDurationMS, "PIPERD_SYNTH_CHUNK_DURATION_MS")
	overrideFloat(&cfg.Synth.Speed, "PIPERD_SYNTH_SPEED")
	overrideFloat(&cfg.Synth.Pitch, "PIPERD_SYNTH_PITCH")
	overrideFloat(&cfg.Synth.Glottal, "PIPERD_SYNTH_GLOTTAL")
	overrideString(&cfg.History.Path, "PIPERD_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "PIPERD_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "PIPERD_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxRequests, "PIPERD_HISTORY_MAX_REQUESTS")
	overrideBool(&cfg.History.VacuumOnStart, "PIPERD_HISTORY_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Node.ID == "" {
		return errors.New("node.id must not be empty")
	}
	if cfg.Node.HeartbeatInterval <= 0 {
		return errors.New("node.heartbeat_interval_ms must be positive")
	}
	if cfg.Node.HeartbeatTimeout <= cfg.Node.HeartbeatInterval {
		return errors.New("node.heartbeat_timeout_ms must be greater than heartbeat interval")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	switch cfg.Phonemizer.Mode {
	case "mock", "exec", "http":
	default:
		return errors.New("phonemizer.mode must be one of mock|exec|http")
	}
	if cfg.Phonemizer.Mode == "exec" && cfg.Phonemizer.Command == "" {
		return errors.New("phonemizer.command must be set when mode=exec")
	}
	if cfg.Phonemizer.Mode == "http" && cfg.Phonemizer.Endpoint == "" {
		return errors.New("phonemizer.endpoint must be set when mode=http")
	}
	switch cfg.Engine.Backend {
	case "cpu", "cuda", "coreml", "directml":
	default:
		return errors.New("engine.backend must be one of cpu|cuda|coreml|directml")
	}
	if cfg.Engine.CacheSize <= 0 {
		return errors.New("engine.cache_size must be >= 1")
	}
	if cfg.Engine.StepIntervalMS <= 0 {
		return errors.New("engine.step_interval_ms must be positive")
	}
	if cfg.Synth.Enabled {
		if cfg.Synth.Voice == "" {
			return errors.New("synth.voice must not be empty when synthesis is enabled")
		}
		if cfg.Engine.VoicesDir == "" {
			return errors.New("engine.voices_dir must not be empty when synthesis is enabled")
		}
	}
	if cfg.Synth.SampleRate <= 0 {
		return errors.New("synth.sample_rate must be positive")
	}
	if cfg.Synth.Channels <= 0 {
		return errors.New("synth.channels must be positive")
	}
	if cfg.Synth.ChunkDurationMS <= 0 {
		return errors.New("synth.chunk_duration_ms must be positive")
	}
	if cfg.Synth.Speed <= 0 {
		return errors.New("synth.speed must be positive")
	}
	if cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}

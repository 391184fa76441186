package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MarzLars/piperd/internal/bus"
	"github.com/MarzLars/piperd/internal/capability"
	"github.com/MarzLars/piperd/internal/config"
	"github.com/MarzLars/piperd/internal/engine"
	"github.com/MarzLars/piperd/internal/history"
	"github.com/MarzLars/piperd/internal/natsserver"
	"github.com/MarzLars/piperd/internal/phoneme"
	"github.com/MarzLars/piperd/internal/synth"
	"github.com/MarzLars/piperd/internal/voice"
)

// Runtime assembles and runs the daemon: telemetry, message bus, inference
// engine, voice cache, phonemizer, synthesis service, and the capability
// registry, torn down in reverse order on shutdown.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	var embedded *natsserver.EmbeddedServer
	if r.cfg.Bus.Embedded {
		embedded, err = natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		defer embedded.Shutdown()
	}

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	store, err := history.Open(ctx, r.cfg.History, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			r.logger.Error("history store close error", slog.String("error", err.Error()))
		}
	}()

	backend, err := engine.ParseBackend(r.cfg.Engine.Backend)
	if err != nil {
		return err
	}
	if err := engine.Initialize(r.cfg.Engine.LibraryPath); err != nil {
		return fmt.Errorf("failed to initialize inference engine: %w", err)
	}
	defer func() {
		if err := engine.Shutdown(); err != nil {
			r.logger.Error("engine shutdown error", slog.String("error", err.Error()))
		}
	}()

	phonemizer, err := r.buildPhonemizer()
	if err != nil {
		return err
	}
	defer phonemizer.Close()

	stepInterval := time.Duration(r.cfg.Engine.StepIntervalMS) * time.Millisecond
	opener := func(modelPath string, _ voice.Manifest) (engine.Session, error) {
		return engine.OpenONNX(modelPath, backend, stepInterval, r.logger)
	}
	voices, err := voice.NewCache(r.cfg.Engine.VoicesDir, r.cfg.Engine.CacheSize, opener, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create voice cache: %w", err)
	}
	defer voices.Close()

	synthService := synth.NewService(ctx, r.cfg.Synth, busClient, voices, phonemizer, store, r.logger)
	if err := synthService.Start(); err != nil {
		return fmt.Errorf("failed to start synthesis service: %w", err)
	}
	defer synthService.Close()

	registry, err := capability.NewRegistry(ctx, r.cfg.Node, busClient, r.localCapabilities(backend, voices), r.logger)
	if err != nil {
		return fmt.Errorf("failed to start capability registry: %w", err)
	}
	defer registry.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("backend", string(backend)),
		slog.Int("voices", len(voices.Names())))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) buildPhonemizer() (phoneme.Phonemizer, error) {
	switch r.cfg.Phonemizer.Mode {
	case "exec":
		return phoneme.NewExecPhonemizer(r.cfg.Phonemizer.Command, r.cfg.Phonemizer.DataDir)
	case "http":
		return phoneme.NewHTTPPhonemizer(r.cfg.Phonemizer.Endpoint), nil
	case "mock", "":
		return phoneme.NewMockPhonemizer(), nil
	default:
		return nil, fmt.Errorf("unknown phonemizer mode %q", r.cfg.Phonemizer.Mode)
	}
}

func (r *Runtime) localCapabilities(backend engine.Backend, voices *voice.Cache) []capability.Capability {
	caps := []capability.Capability{capability.BackendCapability(string(backend))}
	for _, name := range voices.Names() {
		caps = append(caps, capability.VoiceCapability(name, r.cfg.Synth.SampleRate))
	}
	return caps
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

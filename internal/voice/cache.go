package voice

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MarzLars/piperd/internal/engine"
)

// Voice is a loaded voice: its manifest plus a ready inference session.
type Voice struct {
	Name      string
	ModelPath string
	Manifest  Manifest
	Session   engine.Session

	mu sync.Mutex
}

// Lock reserves the voice's session for one request's pipeline pass. The
// session holds a single bind set and admits one in-flight run, so concurrent
// requests for the same voice must take turns.
func (v *Voice) Lock() { v.mu.Lock() }

// Unlock releases the session for the next request.
func (v *Voice) Unlock() { v.mu.Unlock() }

// SessionOpener creates an inference session for a voice model. Injected so
// the cache stays testable without a native runtime.
type SessionOpener func(modelPath string, m Manifest) (engine.Session, error)

// Cache keeps recently used voices loaded. Eviction closes the evicted
// voice's session; loading is serialized so two requests for the same voice
// do not race a double load.
type Cache struct {
	dir  string
	open SessionOpener
	log  *slog.Logger

	mu  sync.Mutex
	lru *lru.Cache[string, *Voice]
}

// NewCache creates a voice cache over dir holding at most size voices.
func NewCache(dir string, size int, open SessionOpener, log *slog.Logger) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	c := &Cache{
		dir:  dir,
		open: open,
		log:  log.With(slog.String("component", "voice-cache")),
	}
	inner, err := lru.NewWithEvict(size, func(name string, v *Voice) {
		if err := v.Session.Close(); err != nil {
			c.log.Warn("failed to close evicted voice session",
				slog.String("voice", name), slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return nil, err
	}
	c.lru = inner
	return c, nil
}

// Get returns the named voice, loading <dir>/<name>.onnx and its manifest on
// first use.
func (c *Cache) Get(name string) (*Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(name); ok {
		return v, nil
	}

	modelPath := filepath.Join(c.dir, name+".onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("voice %s: %w", name, err)
	}
	manifest, err := LoadManifest(modelPath + ".json")
	if err != nil {
		return nil, fmt.Errorf("voice %s: %w", name, err)
	}
	if err := Validate(manifest); err != nil {
		return nil, fmt.Errorf("voice %s manifest invalid: %w", name, err)
	}

	session, err := c.open(modelPath, manifest)
	if err != nil {
		return nil, fmt.Errorf("voice %s: %w", name, err)
	}
	if n := len(session.Inputs()); n != 3 {
		_ = session.Close()
		return nil, fmt.Errorf("voice %s declares %d inputs: %w", name, n, engine.ErrModelInputs)
	}

	v := &Voice{Name: name, ModelPath: modelPath, Manifest: manifest, Session: session}
	c.lru.Add(name, v)
	c.log.Info("voice loaded",
		slog.String("voice", name),
		slog.Int("sample_rate", manifest.Audio.SampleRate))
	return v, nil
}

// Names lists the voices available on disk, loaded or not.
func (c *Cache) Names() []string {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.onnx"))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(".onnx")])
	}
	return names
}

// Close evicts every loaded voice, closing their sessions.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

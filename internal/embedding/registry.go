package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Environment variables read by DefaultRegistry.
const (
	EnvResourcesDir = "EMBEDDER_RESOURCES_DIR"
	EnvBackend      = "EMBEDDER_BACKEND"
	EnvORTLibrary   = "ONNXRUNTIME_LIB"
)

// DefaultResourcesDir is where DefaultRegistry looks for model files when
// EMBEDDER_RESOURCES_DIR is unset.
const DefaultResourcesDir = "/usr/local/var/embedder/models"

// Registry loads each distinct model at most once and shares the resulting
// encoder with every caller. Encoders live as long as the registry.
type Registry struct {
	loader  ResourceLoader
	factory EncoderFactory
	logger  *zap.Logger

	mu     sync.RWMutex
	models map[modelKey]Encoder
	group  singleflight.Group
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a logger for model construction events.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns a registry that resolves resources with loader and builds
// encoders with factory.
func NewRegistry(loader ResourceLoader, factory EncoderFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:  loader,
		factory: factory,
		logger:  zap.NewNop(),
		models:  make(map[modelKey]Encoder),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the shared encoder for spec, constructing it on first use.
// Concurrent first callers wait for a single construction. A failed
// construction is not remembered, so the next call tries again.
func (r *Registry) Load(ctx context.Context, spec ModelSpec) (Encoder, error) {
	if spec.ModelFile == "" || spec.TokenizerFile == "" {
		return nil, fmt.Errorf("%w: model %q needs both a model file and a tokenizer file", ErrInvalidArgument, spec.Name)
	}
	key := spec.key()
	if enc, ok := r.lookup(key); ok {
		return enc, nil
	}

	ch := r.group.DoChan(key.String(), func() (any, error) {
		if enc, ok := r.lookup(key); ok {
			return enc, nil
		}
		enc, err := r.construct(spec)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.models[key] = enc
		r.mu.Unlock()
		return enc, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Encoder), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded reports how many encoders the registry holds.
func (r *Registry) Loaded() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Reset drops every cached encoder. Intended for tests; encoders that implement
// io.Closer are closed.
func (r *Registry) Reset() {
	r.mu.Lock()
	models := r.models
	r.models = make(map[modelKey]Encoder)
	r.mu.Unlock()
	for _, enc := range models {
		if c, ok := enc.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

func (r *Registry) lookup(key modelKey) (Encoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enc, ok := r.models[key]
	return enc, ok
}

func (r *Registry) construct(spec ModelSpec) (Encoder, error) {
	start := time.Now()
	graph, err := r.loader.Open(spec.ModelFile)
	if err != nil {
		return nil, err
	}
	tokenizer, err := r.loader.Open(spec.TokenizerFile)
	if err != nil {
		return nil, err
	}
	enc, err := r.factory(graph, tokenizer, spec)
	if err != nil {
		r.logger.Warn("model load failed",
			zap.String("model", spec.Name),
			zap.String("model_file", spec.ModelFile),
			zap.Error(err))
		if errors.Is(err, ErrModelLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, spec.Name, err)
	}
	r.logger.Info("model loaded",
		zap.String("model", spec.Name),
		zap.String("model_file", spec.ModelFile),
		zap.String("tokenizer_file", spec.TokenizerFile),
		zap.Stringer("pooling", spec.Pooling),
		zap.Int("model_bytes", len(graph)),
		zap.Duration("took", time.Since(start)))
	return enc, nil
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry used by the catalog
// constructors. It is built on first use from EMBEDDER_RESOURCES_DIR,
// EMBEDDER_BACKEND and ONNXRUNTIME_LIB.
func DefaultRegistry() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = registryFromEnv()
	}
	return defaultRegistry
}

// SetDefaultRegistry replaces the process-wide registry and returns a function
// that restores the previous one. Intended for tests.
func SetDefaultRegistry(r *Registry) (restore func()) {
	defaultMu.Lock()
	prev := defaultRegistry
	defaultRegistry = r
	defaultMu.Unlock()
	return func() {
		defaultMu.Lock()
		defaultRegistry = prev
		defaultMu.Unlock()
	}
}

func registryFromEnv() *Registry {
	dir := os.Getenv(EnvResourcesDir)
	if dir == "" {
		dir = DefaultResourcesDir
	}
	factory, err := NewEncoderFactory(Backend(os.Getenv(EnvBackend)), BackendOptions{
		SharedLibraryPath: os.Getenv(EnvORTLibrary),
	})
	if err != nil {
		factory = func(_, _ []byte, _ ModelSpec) (Encoder, error) { return nil, err }
	}
	return NewRegistry(NewDirLoader(dir), factory)
}

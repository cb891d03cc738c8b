// Package app assembles the embedding components from configuration: the
// shared model registry, the worker pool, and metrics.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/embedder/internal/bert"
	"github.com/hyperjump/embedder/internal/config"
	"github.com/hyperjump/embedder/internal/embedding"
)

// Components holds the long-lived objects shared by every model.
type Components struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *embedding.Registry
	Executor   *embedding.BoundedExecutor
	Metrics    *embedding.Metrics
	Prometheus *prometheus.Registry
}

// New builds the components for cfg. Models are loaded lazily by Model.
func New(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validateModels(cfg.Models); err != nil {
		return nil, err
	}
	factory, err := embedding.NewEncoderFactory(embedding.Backend(cfg.Backend), embedding.BackendOptions{
		SharedLibraryPath: cfg.ONNXRuntime.SharedLibraryPath,
		IntraOpThreads:    cfg.ONNXRuntime.IntraOpThreads,
	})
	if err != nil {
		return nil, err
	}
	promReg := prometheus.NewRegistry()
	metrics, err := embedding.NewMetrics(promReg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	registry := embedding.NewRegistry(
		embedding.NewDirLoader(cfg.Resources.Dir),
		factory,
		embedding.WithRegistryLogger(logger),
	)
	executor := embedding.NewBoundedExecutor(cfg.Executor.Workers)

	logger.Debug("components initialized",
		zap.String("backend", cfg.Backend),
		zap.String("resources_dir", cfg.Resources.Dir),
		zap.Int("workers", executor.Workers()),
		zap.Int("models", len(cfg.Models)))

	return &Components{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Executor:   executor,
		Metrics:    metrics,
		Prometheus: promReg,
	}, nil
}

// Specs returns the configured models.
func (c *Components) Specs() ([]embedding.ModelSpec, error) {
	specs := make([]embedding.ModelSpec, 0, len(c.Config.Models))
	for _, mc := range c.Config.Models {
		spec, err := toSpec(mc)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Spec returns the configured model named name, or the first configured model
// when name is empty.
func (c *Components) Spec(name string) (embedding.ModelSpec, error) {
	if name == "" {
		if len(c.Config.Models) == 0 {
			return embedding.ModelSpec{}, fmt.Errorf("%w: no models configured", embedding.ErrInvalidArgument)
		}
		return toSpec(c.Config.Models[0])
	}
	mc, ok := c.Config.Model(name)
	if !ok {
		return embedding.ModelSpec{}, fmt.Errorf("%w: unknown model %q", embedding.ErrInvalidArgument, name)
	}
	return toSpec(mc)
}

// Model returns a model over the shared encoder for name. It runs on the
// shared executor, so closing it leaves the pool running.
func (c *Components) Model(ctx context.Context, name string) (*embedding.Model, error) {
	spec, err := c.Spec(name)
	if err != nil {
		return nil, err
	}
	return embedding.New(ctx, spec,
		embedding.WithRegistry(c.Registry),
		embedding.WithExecutor(c.Executor),
		embedding.WithLogger(c.Logger),
		embedding.WithMetrics(c.Metrics),
		embedding.WithCache(c.Config.CacheSize),
	)
}

// Close stops the worker pool and releases every loaded encoder.
func (c *Components) Close() error {
	var errs []error
	if c.Executor != nil {
		errs = append(errs, c.Executor.Close())
	}
	if c.Registry != nil {
		c.Registry.Reset()
	}
	return errors.Join(errs...)
}

func toSpec(mc config.ModelConfig) (embedding.ModelSpec, error) {
	pooling, err := bert.ParsePoolingMode(mc.Pooling)
	if err != nil {
		return embedding.ModelSpec{}, fmt.Errorf("%w: model %q: %w", embedding.ErrInvalidArgument, mc.Name, err)
	}
	return embedding.ModelSpec{
		Name:          mc.Name,
		ModelFile:     mc.ModelFile,
		TokenizerFile: mc.TokenizerFile,
		Pooling:       pooling,
		Dimension:     mc.Dimension,
	}, nil
}

// validateModels rejects models that would share one encoder but disagree on
// its output dimension.
func validateModels(configs []config.ModelConfig) error {
	type shared struct {
		modelFile, tokenizerFile string
		pooling                  bert.PoolingMode
	}
	seen := make(map[shared]embedding.ModelSpec)
	for _, mc := range configs {
		spec, err := toSpec(mc)
		if err != nil {
			return err
		}
		key := shared{spec.ModelFile, spec.TokenizerFile, spec.Pooling}
		if prev, ok := seen[key]; ok && prev.Dimension != spec.Dimension {
			return fmt.Errorf("%w: models %q and %q share %s but declare dimensions %d and %d",
				embedding.ErrInvalidArgument, prev.Name, spec.Name, spec.ModelFile, prev.Dimension, spec.Dimension)
		}
		seen[key] = spec
	}
	return nil
}

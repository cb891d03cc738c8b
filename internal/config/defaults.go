package config

import "github.com/hyperjump/embedder/internal/embedding"

// DefaultResourcesDir is where packaged model files are installed.
const DefaultResourcesDir = embedding.DefaultResourcesDir

// DefaultModels mirrors the built-in catalog.
func DefaultModels() []ModelConfig {
	catalog := embedding.Catalog()
	out := make([]ModelConfig, len(catalog))
	for i, spec := range catalog {
		out[i] = ModelConfig{
			Name:          spec.Name,
			ModelFile:     spec.ModelFile,
			TokenizerFile: spec.TokenizerFile,
			Pooling:       spec.Pooling.String(),
			Dimension:     spec.Dimension,
		}
	}
	return out
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Backend == "" {
		cfg.Backend = string(embedding.BackendORT)
	}
	if cfg.Resources.Dir == "" {
		cfg.Resources.Dir = DefaultResourcesDir
	}
	if cfg.CacheSize < 0 {
		cfg.CacheSize = 0
	}
	if cfg.Models == nil {
		cfg.Models = DefaultModels()
	}
	for i := range cfg.Models {
		if cfg.Models[i].Pooling == "" {
			cfg.Models[i].Pooling = embedding.PoolingMean.String()
		}
	}
}

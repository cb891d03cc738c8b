// Package config provides configuration loading and structs for the embedder CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/embedder/internal/embedding"
)

// Environment variables that override the config file.
const (
	EnvBackend      = embedding.EnvBackend
	EnvResourcesDir = embedding.EnvResourcesDir
	EnvORTLibrary   = embedding.EnvORTLibrary
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Backend     string            `yaml:"backend"`
	Resources   ResourcesConfig   `yaml:"resources"`
	ONNXRuntime ONNXRuntimeConfig `yaml:"onnxruntime"`
	Executor    ExecutorConfig    `yaml:"executor"`
	CacheSize   int               `yaml:"cache_size"`
	Models      []ModelConfig     `yaml:"models"`
}

// ResourcesConfig locates model graphs and tokenizer files.
type ResourcesConfig struct {
	Dir string `yaml:"dir"`
}

// ONNXRuntimeConfig holds native runtime settings.
type ONNXRuntimeConfig struct {
	SharedLibraryPath string `yaml:"shared_library_path"`
	IntraOpThreads    int    `yaml:"intra_op_threads"`
}

// ExecutorConfig sizes the shared worker pool.
type ExecutorConfig struct {
	Workers int `yaml:"workers"`
}

// ModelConfig describes one embedding model. File names are resolved in Resources.Dir.
type ModelConfig struct {
	Name          string `yaml:"name"`
	ModelFile     string `yaml:"model_file"`
	TokenizerFile string `yaml:"tokenizer_file"`
	Pooling       string `yaml:"pooling"`
	Dimension     int    `yaml:"dimension,omitempty"`
}

// Model returns the model config named name.
func (c *Config) Model(name string) (ModelConfig, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// Load reads and parses the config file at path, expands paths, applies
// environment overrides and then defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if cfg.Resources.Dir != "" {
		cfg.Resources.Dir = expandPath(cfg.Resources.Dir, configDir)
	}
	if cfg.ONNXRuntime.SharedLibraryPath != "" {
		cfg.ONNXRuntime.SharedLibraryPath = expandPath(cfg.ONNXRuntime.SharedLibraryPath, configDir)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	return &cfg, nil
}

// ApplyEnv overrides config values with the EMBEDDER_* environment variables.
// Relative paths from the environment are resolved against the working directory.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv(EnvResourcesDir); v != "" {
		cfg.Resources.Dir = absPath(v)
	}
	if v := os.Getenv(EnvORTLibrary); v != "" {
		// A bare file name is left to the dynamic loader's search path.
		if strings.ContainsRune(v, filepath.Separator) {
			v = absPath(v)
		}
		cfg.ONNXRuntime.SharedLibraryPath = v
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBackend, "")
	t.Setenv(EnvResourcesDir, "")
	t.Setenv(EnvORTLibrary, "")
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
backend: hash
resources:
  dir: "/opt/models"
executor:
  workers: 4
cache_size: 128
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "hash" || cfg.Resources.Dir != "/opt/models" {
		t.Errorf("unexpected config: backend=%s dir=%s", cfg.Backend, cfg.Resources.Dir)
	}
	if cfg.Executor.Workers != 4 || cfg.CacheSize != 128 {
		t.Errorf("unexpected executor/cache: %+v cache=%d", cfg.Executor, cfg.CacheSize)
	}
	if len(cfg.Models) != 2 {
		t.Errorf("default models should be applied; got %d", len(cfg.Models))
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_models(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
models:
  - name: minilm
    model_file: all-MiniLM-L6-v2.onnx
    tokenizer_file: vocab.txt
    dimension: 384
  - name: bge
    model_file: bge.onnx
    tokenizer_file: tokenizer.json
    pooling: cls
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Models) != 2 {
		t.Fatalf("models: got %d, want 2", len(cfg.Models))
	}
	m, ok := cfg.Model("minilm")
	if !ok {
		t.Fatal("model minilm not found")
	}
	if m.Pooling != "mean" || m.Dimension != 384 {
		t.Errorf("minilm: pooling=%s dimension=%d, want mean 384", m.Pooling, m.Dimension)
	}
	if m, _ := cfg.Model("bge"); m.Pooling != "cls" {
		t.Errorf("bge pooling = %s, want cls", m.Pooling)
	}
	if _, ok := cfg.Model("missing"); ok {
		t.Error("unexpected model missing")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
resources:
  dir: "./models"
onnxruntime:
  shared_library_path: "./lib/libonnxruntime.so"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "models"); cfg.Resources.Dir != want {
		t.Errorf("resources dir = %s, want %s", cfg.Resources.Dir, want)
	}
	if want := filepath.Join(dir, "lib", "libonnxruntime.so"); cfg.ONNXRuntime.SharedLibraryPath != want {
		t.Errorf("shared library path = %s, want %s", cfg.ONNXRuntime.SharedLibraryPath, want)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backend: ort\nresources:\n  dir: /opt/models\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvBackend, "hash")
	t.Setenv(EnvResourcesDir, "/srv/models")
	t.Setenv(EnvORTLibrary, "/usr/lib/libonnxruntime.so")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "hash" {
		t.Errorf("backend = %s, want hash", cfg.Backend)
	}
	if cfg.Resources.Dir != "/srv/models" {
		t.Errorf("resources dir = %s, want /srv/models", cfg.Resources.Dir)
	}
	if cfg.ONNXRuntime.SharedLibraryPath != "/usr/lib/libonnxruntime.so" {
		t.Errorf("shared library path = %s", cfg.ONNXRuntime.SharedLibraryPath)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("models: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{CacheSize: -5}
	ApplyDefaults(cfg)
	if cfg.Backend != "ort" {
		t.Errorf("default backend: got %s", cfg.Backend)
	}
	if cfg.Resources.Dir != DefaultResourcesDir {
		t.Errorf("default resources dir: got %s", cfg.Resources.Dir)
	}
	if cfg.CacheSize != 0 {
		t.Errorf("negative cache size should be clamped to 0, got %d", cfg.CacheSize)
	}
	if len(cfg.Models) != 2 || cfg.Models[0].Name != "bge-small-zh-v15-q" || cfg.Models[1].Name != "e5-small-v2" {
		t.Errorf("default models: got %+v", cfg.Models)
	}
	if cfg.Models[0].Dimension != 512 || cfg.Models[1].Dimension != 0 {
		t.Errorf("default dimensions: got %d, %d", cfg.Models[0].Dimension, cfg.Models[1].Dimension)
	}
}

func TestApplyDefaults_keepsEmptyModelList(t *testing.T) {
	cfg := &Config{Models: []ModelConfig{}}
	ApplyDefaults(cfg)
	if len(cfg.Models) != 0 {
		t.Errorf("an explicit empty model list should be kept, got %d models", len(cfg.Models))
	}
}

func TestSave(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Backend:   "hash",
		Resources: ResourcesConfig{Dir: "/tmp/models"},
		Executor:  ExecutorConfig{Workers: 2},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Executor.Workers != 2 || loaded.Backend != "hash" {
		t.Errorf("loaded config: got %+v", loaded)
	}
}

func TestLoad_envPathsRelativeToWorkingDir(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	t.Chdir(cwd)
	t.Setenv(EnvResourcesDir, "models")
	t.Setenv(EnvORTLibrary, "./lib/libonnxruntime.so")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("resources:\n  dir: ./ignored\n"), 0600); err != nil {
		t.Fatal(err)
	}
	fromFile, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fromDefaults := &Config{}
	ApplyEnv(fromDefaults)
	ApplyDefaults(fromDefaults)

	want, err := filepath.Abs("models")
	if err != nil {
		t.Fatal(err)
	}
	if fromFile.Resources.Dir != want {
		t.Errorf("with config file: resources dir = %s, want %s", fromFile.Resources.Dir, want)
	}
	if fromDefaults.Resources.Dir != want {
		t.Errorf("without config file: resources dir = %s, want %s", fromDefaults.Resources.Dir, want)
	}
	wantLib, _ := filepath.Abs(filepath.Join("lib", "libonnxruntime.so"))
	if fromFile.ONNXRuntime.SharedLibraryPath != wantLib {
		t.Errorf("shared library path = %s, want %s", fromFile.ONNXRuntime.SharedLibraryPath, wantLib)
	}
}

func TestApplyEnv_bareLibraryNameKept(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvORTLibrary, "libonnxruntime.so")
	cfg := &Config{}
	ApplyEnv(cfg)
	if cfg.ONNXRuntime.SharedLibraryPath != "libonnxruntime.so" {
		t.Errorf("bare library name should be left for the loader, got %s", cfg.ONNXRuntime.SharedLibraryPath)
	}
}

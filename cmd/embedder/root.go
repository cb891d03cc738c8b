package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/hyperjump/embedder/internal/app"
	"github.com/hyperjump/embedder/internal/config"
	"github.com/hyperjump/embedder/pkg/utils"
)

const defaultConfigPath = "/usr/local/etc/embedder/config.yaml"

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "embedder",
		Short: "Compute text embeddings with local ONNX models",
		Long: `embedder turns text into dense vectors with BERT-style models running in-process.

Models are loaded once per process from the resources directory and shared by
every command. Long texts are split into windows and their embeddings averaged.

Examples:
  embedder embed "hello world"                    # Embed with the first configured model
  embedder embed --model e5-small-v2 -o json a b  # JSON output with full vectors
  embedder embed --file texts.txt                 # One text per line ("-" reads stdin)
  embedder similarity "a cat" "a kitten"          # Cosine similarity of two texts
  embedder rank "cats" "a kitten" "a truck"       # Order candidates by similarity
  embedder dimension --model e5-small-v2          # Output dimension of a model
  embedder models                                 # List configured models
  embedder config init ./config.yaml              # Write a default config file`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging (model loading, timings)")

	root.AddCommand(
		newEmbedCmd(opts),
		newDimensionCmd(opts),
		newSimilarityCmd(opts),
		newRankCmd(opts),
		newModelsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "embedder version %s\n", version)
		},
	}
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). If neither exists the
// built-in defaults are used, so the CLI works with environment variables alone.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// run loads the config, starts the application components and calls fn with them.
// The components are closed when fn returns.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, c *app.Components) error) error {
	cfg, resolvedConfigPath, err := loadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || o.debug
	logger, err := utils.NewCLILogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backend", cfg.Backend),
		zap.Bool("debug", debugMode),
	)

	var components *app.Components
	fxApp := fx.New(
		fx.Supply(cfg, logger),
		app.FXModule,
		fx.Populate(&components),
		fx.WithLogger(func() fxevent.Logger {
			if debugMode {
				return &fxevent.ZapLogger{Logger: logger}
			}
			return fxevent.NopLogger
		}),
	)
	ctx := cmd.Context()
	if err := fxApp.Start(ctx); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	runErr := fn(ctx, components)
	stopErr := fxApp.Stop(context.Background())
	return errors.Join(runErr, stopErr)
}

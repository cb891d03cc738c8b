package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/hyperjump/embedder/internal/app"
	"github.com/hyperjump/embedder/internal/cli"
	"github.com/hyperjump/embedder/internal/embedding"
	"github.com/hyperjump/embedder/internal/models"
)

func newEmbedCmd(root *rootOptions) *cobra.Command {
	var (
		model       string
		file        string
		output      string
		prefix      string
		query       bool
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "embed [text...]",
		Short: "Embed texts and print their vectors",
		Long: `Embed one or more texts with a configured model.

Texts come from the arguments and, with --file, one per line from a file
("-" reads stdin). All texts are embedded concurrently; the output keeps the
input order. If any text fails nothing is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			req := &models.EmbedRequest{Model: model, Texts: args, Prefix: prefix}
			if query && req.Prefix == "" {
				req.Prefix = embedding.BgeQueryPrefix
			}
			if file != "" {
				texts, err := readTextsFile(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Texts = append(req.Texts, texts...)
			}
			if err := req.Validate(); err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, c *app.Components) error {
				result, err := embedTexts(ctx, c, req)
				if err != nil {
					return err
				}
				if showMetrics {
					if err := writeMetrics(cmd.ErrOrStderr(), c.Prometheus); err != nil {
						return err
					}
				}
				return cli.WriteEmbeddings(cmd.OutOrStdout(), result, format)
			})
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default: first configured model)")
	cmd.Flags().StringVarP(&file, "file", "f", "", `read texts from file, one per line ("-" for stdin)`)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "string prepended to every text")
	cmd.Flags().BoolVar(&query, "query", false, "prepend the BGE retrieval instruction (for search queries)")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "write Prometheus metrics to stderr after embedding")
	return cmd
}

func newDimensionCmd(root *rootOptions) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "dimension",
		Short: "Print the output dimension of a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.run(cmd, func(ctx context.Context, c *app.Components) error {
				m, err := c.Model(ctx, model)
				if err != nil {
					return err
				}
				defer m.Close()
				dim, err := m.Dimension(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dim)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default: first configured model)")
	return cmd
}

// embedTexts embeds the request with one model and builds the CLI result.
func embedTexts(ctx context.Context, c *app.Components, req *models.EmbedRequest) (*models.EmbeddingResult, error) {
	m, err := c.Model(ctx, req.Model)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	start := time.Now()
	resp, err := m.EmbedAll(ctx, req.Inputs())
	if err != nil {
		return nil, err
	}
	result := &models.EmbeddingResult{
		Model:      m.Name(),
		Dimension:  m.Spec().Dimension,
		Embeddings: make([]models.Embedding, len(resp.Content)),
		TookMs:     time.Since(start).Milliseconds(),
	}
	for i, vec := range resp.Content {
		result.Embeddings[i] = models.Embedding{Index: i, Text: req.Texts[i], Vector: vec}
	}
	if result.Dimension == 0 && len(resp.Content) > 0 {
		result.Dimension = len(resp.Content[0])
	}
	if resp.Usage != nil {
		result.Usage = &models.Usage{InputTokens: resp.Usage.InputTokens}
	}
	return result, nil
}

func readTextsFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return cli.ReadTexts(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texts file: %w", err)
	}
	defer f.Close()
	return cli.ReadTexts(f)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

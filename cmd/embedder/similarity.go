package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hyperjump/embedder/internal/app"
	"github.com/hyperjump/embedder/internal/cli"
	"github.com/hyperjump/embedder/internal/models"
	"github.com/hyperjump/embedder/pkg/utils"
)

func newSimilarityCmd(root *rootOptions) *cobra.Command {
	var model, output string
	cmd := &cobra.Command{
		Use:   "similarity <a> <b>",
		Short: "Print the cosine similarity of two texts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, c *app.Components) error {
				m, err := c.Model(ctx, model)
				if err != nil {
					return err
				}
				defer m.Close()
				resp, err := m.EmbedAll(ctx, args)
				if err != nil {
					return err
				}
				return cli.WriteSimilarity(cmd.OutOrStdout(), &models.SimilarityResult{
					Model: m.Name(),
					A:     args[0],
					B:     args[1],
					Score: utils.CosineSimilarity(resp.Content[0], resp.Content[1]),
				}, format)
			})
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default: first configured model)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
	return cmd
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hyperjump/embedder/internal/app"
	"github.com/hyperjump/embedder/internal/cli"
	"github.com/hyperjump/embedder/internal/models"
)

func newModelsCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return root.run(cmd, func(_ context.Context, c *app.Components) error {
				specs, err := c.Specs()
				if err != nil {
					return err
				}
				infos := make([]models.ModelInfo, len(specs))
				for i, s := range specs {
					infos[i] = models.ModelInfo{
						Name:          s.Name,
						ModelFile:     s.ModelFile,
						TokenizerFile: s.TokenizerFile,
						Pooling:       s.Pooling.String(),
						Dimension:     s.Dimension,
					}
				}
				return cli.WriteModels(cmd.OutOrStdout(), infos, format)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
	return cmd
}

package main

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/embedder/internal/app"
	"github.com/hyperjump/embedder/internal/cli"
	"github.com/hyperjump/embedder/internal/embedding"
	"github.com/hyperjump/embedder/internal/models"
	"github.com/hyperjump/embedder/internal/vector"
)

func newRankCmd(root *rootOptions) *cobra.Command {
	var (
		model  string
		file   string
		output string
		top    int
		query  bool
	)
	cmd := &cobra.Command{
		Use:   "rank <query> [candidate...]",
		Short: "Rank candidate texts by similarity to a query",
		Long: `Embed a query and a set of candidate texts and print the candidates
ordered by cosine similarity to the query, best first.

Candidates come from the arguments after the query and, with --file, one per
line from a file ("-" reads stdin).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			candidates := args[1:]
			if file != "" {
				texts, err := readTextsFile(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				candidates = append(candidates, texts...)
			}
			req := &models.EmbedRequest{Model: model, Texts: candidates}
			if err := req.Validate(); err != nil {
				return err
			}
			q := args[0]
			if query {
				q = embedding.BgeQueryPrefix + q
			}
			return root.run(cmd, func(ctx context.Context, c *app.Components) error {
				result, err := rankTexts(ctx, c, model, q, candidates, top)
				if err != nil {
					return err
				}
				result.Query = args[0]
				return cli.WriteRanking(cmd.OutOrStdout(), result, format)
			})
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default: first configured model)")
	cmd.Flags().StringVarP(&file, "file", "f", "", `read candidates from file, one per line ("-" for stdin)`)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
	cmd.Flags().IntVarP(&top, "top", "k", 0, "number of results to print (0 = all)")
	cmd.Flags().BoolVar(&query, "query", false, "prepend the BGE retrieval instruction to the query")
	return cmd
}

// rankTexts embeds the query together with the candidates and orders the
// candidates by inner product with the query vector.
func rankTexts(ctx context.Context, c *app.Components, model, query string, candidates []string, top int) (*models.RankResult, error) {
	m, err := c.Model(ctx, model)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	start := time.Now()
	resp, err := m.EmbedAll(ctx, append([]string{query}, candidates...))
	if err != nil {
		return nil, err
	}
	index, err := vector.NewMemoryIndex(len(resp.Content[0]))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = strconv.Itoa(i)
	}
	if err := index.Add(ctx, ids, resp.Content[1:]); err != nil {
		return nil, err
	}
	hits, err := index.Search(ctx, resp.Content[0], top)
	if err != nil {
		return nil, err
	}

	result := &models.RankResult{
		Model:   m.Name(),
		Results: make([]models.RankedText, len(hits)),
		TookMs:  time.Since(start).Milliseconds(),
	}
	for rank, hit := range hits {
		i, _ := strconv.Atoi(hit.ID)
		result.Results[rank] = models.RankedText{
			Rank:  rank + 1,
			Index: i,
			Text:  candidates[i],
			Score: hit.Score,
		}
	}
	return result, nil
}

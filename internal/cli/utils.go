// Package cli provides output formatting and input helpers for the embedder CLI.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hyperjump/embedder/internal/models"
	"github.com/hyperjump/embedder/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// previewDims is how many vector components the text format prints.
const previewDims = 8

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

// WriteEmbeddings writes an embed result to w in the given format.
// Use OutputJSON for parseable output with full vectors.
func WriteEmbeddings(w io.Writer, result *models.EmbeddingResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\nEmbedded %d texts with %s (dimension %d) in %dms",
		len(result.Embeddings), result.Model, result.Dimension, result.TookMs)
	if result.Usage != nil {
		fmt.Fprintf(w, ", %d input tokens", result.Usage.InputTokens)
	}
	fmt.Fprint(w, "\n\n")
	for _, e := range result.Embeddings {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] %s\n", e.Index, utils.Truncate(e.Text, 80))
		fmt.Fprintf(w, "%s\n\n", formatVector(e.Vector, previewDims))
	}
	return nil
}

// WriteSimilarity writes a similarity result to w in the given format.
func WriteSimilarity(w io.Writer, result *models.SimilarityResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "%.4f\n", result.Score)
	return nil
}

// WriteRanking writes a rank result to w in the given format.
func WriteRanking(w io.Writer, result *models.RankResult, format OutputFormat) error {
	if format == OutputJSON {
		if result.Results == nil {
			result.Results = []models.RankedText{}
		}
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\nRanked %d texts against %q with %s in %dms\n\n",
		len(result.Results), utils.Truncate(result.Query, 60), result.Model, result.TookMs)
	for _, r := range result.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Input: %d\n", r.Rank, r.Score, r.Index)
		fmt.Fprintf(w, "%s\n\n", utils.Truncate(r.Text, 200))
	}
	return nil
}

// WriteModels writes the configured models to w in the given format.
func WriteModels(w io.Writer, infos []models.ModelInfo, format OutputFormat) error {
	if format == OutputJSON {
		if infos == nil {
			infos = []models.ModelInfo{}
		}
		return writeJSON(w, infos)
	}
	for _, m := range infos {
		dim := "measured"
		if m.Dimension > 0 {
			dim = strconv.Itoa(m.Dimension)
		}
		fmt.Fprintf(w, "%-24s pooling=%-4s dimension=%-6s %s + %s\n",
			m.Name, m.Pooling, dim, m.ModelFile, m.TokenizerFile)
	}
	return nil
}

// PrintEmbeddings prints an embed result to stdout in text format.
func PrintEmbeddings(result *models.EmbeddingResult) {
	_ = WriteEmbeddings(os.Stdout, result, OutputText)
}

// ReadTexts reads one text per line from r, skipping blank lines.
func ReadTexts(r io.Reader) ([]string, error) {
	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		texts = append(texts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read texts: %w", err)
	}
	return texts, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatVector renders the first n components of v, eliding the rest.
func formatVector(v []float32, n int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i == n {
			fmt.Fprintf(&b, ", ... %d more", len(v)-n)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', 4, 32))
	}
	b.WriteByte(']')
	return b.String()
}

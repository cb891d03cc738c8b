package embedding

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/embedder/pkg/utils"
)

const defaultHashDimensions = 384

// HashEncoder is a deterministic encoder for tests and development. It returns a
// fixed-dimension vector derived from the text hash so that the same text always
// gets the same embedding, and counts whitespace-separated words as tokens.
type HashEncoder struct {
	dimensions int
}

// NewHashEncoder returns an encoder that produces deterministic embeddings of the given dimensions.
func NewHashEncoder(dimensions int) *HashEncoder {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &HashEncoder{dimensions: dimensions}
}

// Encode returns a unit-length embedding based on the text hash.
func (e *HashEncoder) Encode(ctx context.Context, text string) (Encoding, error) {
	if err := ctx.Err(); err != nil {
		return Encoding{}, err
	}
	if !utf8.ValidString(text) {
		return Encoding{}, ErrInvalidArgument
	}
	h := hashString(text)
	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(vec)
	return Encoding{
		Vector: vec,
		Usage:  &TokenUsage{InputTokens: len(strings.Fields(text))},
	}, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEncoder) Dimensions() int {
	return e.dimensions
}

func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

// Package embedding provides in-process text embedding models: a process-wide
// registry of shared encoders, and a Model facade that fans texts out to a
// bounded worker pool and returns order-preserving embeddings.
package embedding

import (
	"context"

	"github.com/hyperjump/embedder/internal/bert"
)

// PoolingMode selects how token states are reduced to one vector.
type PoolingMode = bert.PoolingMode

// Pooling modes.
const (
	PoolingCLS  = bert.PoolingCLS
	PoolingMean = bert.PoolingMean
)

// TokenUsage reports how many input tokens a call consumed.
type TokenUsage struct {
	InputTokens int `json:"input_tokens"`
}

// Add returns the sum of u and other. The result is nil if either side is nil,
// so a missing count is never mistaken for zero tokens.
func (u *TokenUsage) Add(other *TokenUsage) *TokenUsage {
	if u == nil || other == nil {
		return nil
	}
	return &TokenUsage{InputTokens: u.InputTokens + other.InputTokens}
}

// Encoding is the result of encoding one text.
type Encoding struct {
	Vector []float32
	// Usage is nil when the encoder does not report token counts.
	Usage *TokenUsage
}

//go:generate mockgen -source=embedder.go -destination=mock_encoder_test.go -package=embedding

// Encoder turns a single text into an embedding. It is the shared model held by
// the registry and must be safe for concurrent use without external locking.
type Encoder interface {
	Encode(ctx context.Context, text string) (Encoding, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, text string) (Encoding, error)

// Encode calls f.
func (f EncoderFunc) Encode(ctx context.Context, text string) (Encoding, error) {
	return f(ctx, text)
}

// Response is a model result with optional token usage.
type Response[T any] struct {
	Content T
	Usage   *TokenUsage
}

// ModelSpec names a model and the resources it is built from.
type ModelSpec struct {
	Name          string
	ModelFile     string
	TokenizerFile string
	Pooling       PoolingMode
	// Dimension is the known output length; 0 means it is measured on first use.
	Dimension int
}

// modelKey identifies one shared encoder in a registry.
type modelKey struct {
	modelFile     string
	tokenizerFile string
	pooling       PoolingMode
}

func (s ModelSpec) key() modelKey {
	return modelKey{modelFile: s.ModelFile, tokenizerFile: s.TokenizerFile, pooling: s.Pooling}
}

func (k modelKey) String() string {
	return k.modelFile + "|" + k.tokenizerFile + "|" + k.pooling.String()
}

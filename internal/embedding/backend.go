package embedding

import (
	"context"
	"fmt"
	"io"

	"github.com/hyperjump/embedder/internal/bert"
)

// Backend names an inference implementation.
type Backend string

const (
	// BackendORT runs ONNX graphs with ONNX Runtime (requires CGO).
	BackendORT Backend = "ort"
	// BackendHugot runs ONNX graphs with hugot (requires -tags=hugot).
	BackendHugot Backend = "hugot"
	// BackendHash produces deterministic hash-based vectors without any native library.
	BackendHash Backend = "hash"
)

// EncoderFactory builds a shared encoder from raw model and tokenizer resources.
type EncoderFactory func(graph, tokenizer []byte, spec ModelSpec) (Encoder, error)

// BackendOptions tunes the native backends.
type BackendOptions struct {
	SharedLibraryPath string
	IntraOpThreads    int
}

// bertModel is what the bert backends implement.
type bertModel interface {
	Encode(text string) ([]float32, int, error)
	io.Closer
}

// bertEncoder adapts a bert backend to Encoder. Negative token counts mean the
// backend does not report usage.
type bertEncoder struct {
	model bertModel
}

func (e *bertEncoder) Encode(ctx context.Context, text string) (Encoding, error) {
	if err := ctx.Err(); err != nil {
		return Encoding{}, err
	}
	vec, tokens, err := e.model.Encode(text)
	if err != nil {
		return Encoding{}, err
	}
	enc := Encoding{Vector: vec}
	if tokens >= 0 {
		enc.Usage = &TokenUsage{InputTokens: tokens}
	}
	return enc, nil
}

func (e *bertEncoder) Close() error { return e.model.Close() }

// NewEncoderFactory returns the factory for backend.
func NewEncoderFactory(backend Backend, opts BackendOptions) (EncoderFactory, error) {
	switch backend {
	case BackendORT, "":
		return func(graph, tokenizer []byte, spec ModelSpec) (Encoder, error) {
			vocab, err := bert.LoadVocabulary(spec.TokenizerFile, tokenizer)
			if err != nil {
				return nil, err
			}
			model, err := bert.NewORTEncoder(graph, bert.NewTokenizer(vocab), bert.Options{
				Pooling:           spec.Pooling,
				SharedLibraryPath: opts.SharedLibraryPath,
				IntraOpThreads:    opts.IntraOpThreads,
			})
			if err != nil {
				return nil, err
			}
			return &bertEncoder{model: model}, nil
		}, nil
	case BackendHugot:
		return func(graph, tokenizer []byte, spec ModelSpec) (Encoder, error) {
			model, err := bert.NewHugotEncoder(graph, spec.TokenizerFile, tokenizer, bert.Options{Pooling: spec.Pooling})
			if err != nil {
				return nil, err
			}
			return &bertEncoder{model: model}, nil
		}, nil
	case BackendHash:
		return func(_, _ []byte, spec ModelSpec) (Encoder, error) {
			return NewHashEncoder(spec.Dimension), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q (supported: ort, hugot, hash)", ErrInvalidArgument, backend)
	}
}

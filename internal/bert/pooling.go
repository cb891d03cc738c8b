// Package bert implements the BERT bi-encoder used by the embedding models:
// WordPiece tokenization, pooling of transformer outputs, and the inference
// backends (ONNX Runtime, hugot) that produce the per-token hidden states.
package bert

import (
	"fmt"
	"strings"
)

// PoolingMode selects how per-token hidden states are reduced to one vector.
type PoolingMode int

const (
	// PoolingCLS takes the hidden state of the leading [CLS] token.
	PoolingCLS PoolingMode = iota
	// PoolingMean averages the hidden states of all tokens.
	PoolingMean
)

// String returns the lower-case name used in configuration files.
func (p PoolingMode) String() string {
	switch p {
	case PoolingCLS:
		return "cls"
	case PoolingMean:
		return "mean"
	default:
		return fmt.Sprintf("pooling(%d)", int(p))
	}
}

// ParsePoolingMode parses "cls" or "mean" (case-insensitive).
func ParsePoolingMode(s string) (PoolingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cls":
		return PoolingCLS, nil
	case "mean":
		return PoolingMean, nil
	default:
		return 0, fmt.Errorf("unknown pooling mode %q (supported: cls, mean)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PoolingMode) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PoolingMode) UnmarshalText(text []byte) error {
	mode, err := ParsePoolingMode(string(text))
	if err != nil {
		return err
	}
	*p = mode
	return nil
}

// Pool reduces a row-major [seqLen x dim] hidden-state matrix to a single vector.
func Pool(hidden []float32, seqLen, dim int, mode PoolingMode) ([]float32, error) {
	if seqLen <= 0 || dim <= 0 {
		return nil, fmt.Errorf("invalid hidden state shape [%d x %d]", seqLen, dim)
	}
	if len(hidden) < seqLen*dim {
		return nil, fmt.Errorf("hidden state has %d values, want %d", len(hidden), seqLen*dim)
	}
	out := make([]float32, dim)
	switch mode {
	case PoolingCLS:
		copy(out, hidden[:dim])
	case PoolingMean:
		for row := 0; row < seqLen; row++ {
			offset := row * dim
			for j := 0; j < dim; j++ {
				out[j] += hidden[offset+j]
			}
		}
		inv := 1 / float32(seqLen)
		for j := range out {
			out[j] *= inv
		}
	default:
		return nil, fmt.Errorf("unsupported pooling mode %s", mode)
	}
	return out, nil
}

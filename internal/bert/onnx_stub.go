//go:build !cgo
// +build !cgo

package bert

import "fmt"

// ORTEncoder stub type when built without CGO (see onnx.go for real implementation).
type ORTEncoder struct{}

// NewORTEncoder returns an error when built without CGO (ONNX not available).
func NewORTEncoder(_ []byte, _ *Tokenizer, _ Options) (*ORTEncoder, error) {
	return nil, fmt.Errorf("%w: ONNX encoder requires CGO; build with CGO_ENABLED=1 and onnxruntime", ErrBackendUnavailable)
}

// Encode always fails without CGO.
func (e *ORTEncoder) Encode(string) ([]float32, int, error) {
	return nil, 0, ErrBackendUnavailable
}

// Close is a no-op without CGO.
func (e *ORTEncoder) Close() error {
	return nil
}

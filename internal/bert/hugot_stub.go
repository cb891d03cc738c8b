//go:build !hugot

package bert

import "fmt"

// HugotEncoder stub type when built without the hugot tag (see hugot.go).
type HugotEncoder struct{}

// NewHugotEncoder returns an error when built without -tags=hugot.
func NewHugotEncoder(_ []byte, _ string, _ []byte, _ Options) (*HugotEncoder, error) {
	return nil, fmt.Errorf("%w: build with -tags=hugot to enable the hugot backend", ErrBackendUnavailable)
}

// Encode always fails without the hugot tag.
func (e *HugotEncoder) Encode(string) ([]float32, int, error) {
	return nil, 0, ErrBackendUnavailable
}

// Close is a no-op without the hugot tag.
func (e *HugotEncoder) Close() error {
	return nil
}

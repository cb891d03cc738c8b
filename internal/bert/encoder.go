package bert

import (
	"errors"
	"fmt"

	"github.com/hyperjump/embedder/pkg/utils"
)

// DefaultMaxSeqLen is the longest sequence (special tokens included) BERT-small models accept.
const DefaultMaxSeqLen = 512

// Default ONNX graph input and output names for exported BERT encoders.
const (
	InputIDs      = "input_ids"
	AttentionMask = "attention_mask"
	TokenTypeIDs  = "token_type_ids"
	HiddenState   = "last_hidden_state"
)

var (
	// ErrBackendUnavailable is returned when an inference backend was not compiled in.
	ErrBackendUnavailable = errors.New("inference backend not available")
	// ErrUnsupported is returned when a backend cannot serve the requested configuration.
	ErrUnsupported = errors.New("unsupported model configuration")
)

// Options configures a bi-encoder.
type Options struct {
	Pooling    PoolingMode
	MaxSeqLen  int
	InputNames []string
	OutputName string

	// SharedLibraryPath points at the onnxruntime shared library; empty uses the platform default.
	SharedLibraryPath string
	// IntraOpThreads limits ONNX Runtime threads per inference; 0 leaves the runtime default.
	IntraOpThreads int
}

func (o Options) withDefaults() Options {
	if o.MaxSeqLen <= 2 {
		o.MaxSeqLen = DefaultMaxSeqLen
	}
	if len(o.InputNames) == 0 {
		o.InputNames = []string{InputIDs, AttentionMask, TokenTypeIDs}
	}
	if o.OutputName == "" {
		o.OutputName = HiddenState
	}
	return o
}

// forwardFunc runs the transformer over one [CLS] ... [SEP] sequence and returns
// its row-major hidden states with their shape.
type forwardFunc func(inputIDs, attentionMask, tokenTypeIDs []int64) (hidden []float32, seqLen, dim int, err error)

// biEncoder holds the backend-independent part of encoding: tokenization,
// partitioning of long inputs, pooling and normalization.
type biEncoder struct {
	tokenizer *Tokenizer
	pooling   PoolingMode
	maxSeqLen int
	forward   forwardFunc
}

// Encode returns the L2-normalized embedding of text and the number of WordPiece
// tokens it contained. Texts longer than the model window are split into windows
// whose embeddings are averaged, weighted by window length.
func (e *biEncoder) Encode(text string) ([]float32, int, error) {
	ids, err := e.tokenizer.Encode(text)
	if err != nil {
		return nil, 0, err
	}
	windows := Partition(ids, e.maxSeqLen-2)
	vectors := make([][]float32, len(windows))
	weights := make([]int, len(windows))
	for i, window := range windows {
		vec, err := e.encodeWindow(window)
		if err != nil {
			return nil, 0, err
		}
		vectors[i] = vec
		weights[i] = len(window) + 2
	}

	vec := vectors[0]
	if len(vectors) > 1 {
		vec = utils.WeightedAverage(vectors, weights)
	}
	utils.NormalizeL2(vec)
	return vec, len(ids), nil
}

func (e *biEncoder) encodeWindow(ids []int64) ([]float32, error) {
	inputIDs, mask, types := e.tokenizer.Inputs(ids)
	hidden, seqLen, dim, err := e.forward(inputIDs, mask, types)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return Pool(hidden, seqLen, dim, e.pooling)
}

// Partition splits ids into consecutive windows of at most size tokens.
// An empty input yields a single empty window so that empty text still encodes.
func Partition(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = DefaultMaxSeqLen - 2
	}
	if len(ids) <= size {
		return [][]int64{ids}
	}
	windows := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		windows = append(windows, ids[start:end])
	}
	return windows
}

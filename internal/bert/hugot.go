//go:build hugot

package bert

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/hyperjump/embedder/pkg/utils"
)

const (
	hugotModelFile     = "model.onnx"
	hugotTokenizerFile = "tokenizer.json"
)

// HugotEncoder runs a feature-extraction pipeline on hugot's pure Go session.
// The pipeline always mean-pools and does not expose token counts, so Encode
// reports -1 tokens.
type HugotEncoder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	dir      string
}

// NewHugotEncoder stages the graph and a tokenizer.json in a temporary model
// directory and builds a pipeline over it.
func NewHugotEncoder(graph []byte, tokenizerName string, tokenizerData []byte, opts Options) (*HugotEncoder, error) {
	if opts.Pooling != PoolingMean {
		return nil, fmt.Errorf("%w: hugot backend supports mean pooling only, got %s", ErrUnsupported, opts.Pooling)
	}
	if !strings.EqualFold(path.Ext(tokenizerName), ".json") {
		return nil, fmt.Errorf("%w: hugot backend needs a tokenizer.json, got %s", ErrUnsupported, tokenizerName)
	}

	dir, err := os.MkdirTemp("", "embedder-hugot-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, hugotModelFile), graph, 0600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to stage model: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, hugotTokenizerFile), tokenizerData, 0600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to stage tokenizer: %w", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath:    dir,
		Name:         filepath.Base(dir),
		OnnxFilename: hugotModelFile,
	})
	if err != nil {
		_ = session.Destroy()
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create feature extraction pipeline: %w", err)
	}
	return &HugotEncoder{session: session, pipeline: pipeline, dir: dir}, nil
}

// Encode returns the L2-normalized embedding of text.
func (e *HugotEncoder) Encode(text string) ([]float32, int, error) {
	out, err := e.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, 0, fmt.Errorf("inference failed: %w", err)
	}
	if out == nil || len(out.Embeddings) == 0 {
		return nil, 0, errors.New("inference returned no embeddings")
	}
	vec := slices.Clone(out.Embeddings[0])
	utils.NormalizeL2(vec)
	return vec, -1, nil
}

// Close destroys the session and removes the staged model directory.
func (e *HugotEncoder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.dir != "" {
		_ = os.RemoveAll(e.dir)
		e.dir = ""
	}
	return err
}

//go:build cgo
// +build cgo

package bert

import (
	"fmt"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment initializes the process-wide ONNX Runtime environment once.
func initEnvironment(sharedLibraryPath string) error {
	envOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if sharedLibraryPath != "" {
			ort.SetSharedLibraryPath(sharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	})
	return envErr
}

// ORTEncoder runs a BERT encoder graph with ONNX Runtime. Every Encode call allocates
// its own tensors, so one encoder can serve concurrent callers without locking.
type ORTEncoder struct {
	biEncoder
	session    *ort.DynamicAdvancedSession
	inputNames []string
}

// NewORTEncoder creates an encoder from an in-memory ONNX graph. Inputs listed in
// opts.InputNames that the graph does not declare (commonly token_type_ids) are dropped.
func NewORTEncoder(graph []byte, tokenizer *Tokenizer, opts Options) (*ORTEncoder, error) {
	opts = opts.withDefaults()
	if err := initEnvironment(opts.SharedLibraryPath); err != nil {
		return nil, err
	}

	declared, _, err := ort.GetInputOutputInfoWithONNXData(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONNX graph inputs: %w", err)
	}
	inputNames := make([]string, 0, len(opts.InputNames))
	for _, name := range opts.InputNames {
		if slices.ContainsFunc(declared, func(info ort.InputOutputInfo) bool { return info.Name == name }) {
			inputNames = append(inputNames, name)
		}
	}
	if !slices.Contains(inputNames, InputIDs) {
		return nil, fmt.Errorf("%w: graph has no %s input", ErrUnsupported, InputIDs)
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOpts.Destroy()
	if opts.IntraOpThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(graph, inputNames, []string{opts.OutputName}, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	e := &ORTEncoder{session: session, inputNames: inputNames}
	e.biEncoder = biEncoder{
		tokenizer: tokenizer,
		pooling:   opts.Pooling,
		maxSeqLen: opts.MaxSeqLen,
		forward:   e.run,
	}
	return e, nil
}

func (e *ORTEncoder) run(inputIDs, attentionMask, tokenTypeIDs []int64) ([]float32, int, int, error) {
	shape := ort.NewShape(1, int64(len(inputIDs)))
	inputs := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, in := range inputs {
			_ = in.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		var data []int64
		switch name {
		case InputIDs:
			data = inputIDs
		case AttentionMask:
			data = attentionMask
		case TokenTypeIDs:
			data = tokenTypeIDs
		default:
			return nil, 0, 0, fmt.Errorf("%w: unknown input %q", ErrUnsupported, name)
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	// A nil output is allocated by onnxruntime with the shape the graph produces.
	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, 0, 0, err
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, 0, 0, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	dims := out.GetShape()
	if len(dims) != 3 || dims[0] != 1 {
		return nil, 0, 0, fmt.Errorf("unexpected output shape %v", dims)
	}
	hidden := slices.Clone(out.GetData())
	return hidden, int(dims[1]), int(dims[2]), nil
}

// Close destroys the ONNX session.
func (e *ORTEncoder) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

package embedding

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/hyperjump/embedder/internal/embedding"

// sampleText is embedded once to measure the output dimension of models
// without a known dimension.
const sampleText = "test"

// Model embeds texts with a shared encoder, dispatching one task per text to an
// executor. A Model is safe for concurrent use.
type Model struct {
	spec         ModelSpec
	encoder      Encoder
	executor     Executor
	ownsExecutor bool
	logger       *zap.Logger
	metrics      *Metrics
	tracer       trace.Tracer

	dimMu sync.Mutex
	dim   int

	closed atomic.Bool
}

// Option configures a Model.
type Option func(*options)

type options struct {
	executor       Executor
	executorSet    bool
	registry       *Registry
	logger         *zap.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	cacheSize      int
	dimension      int
}

// WithExecutor runs embedding tasks on executor instead of a pool owned by the
// model. The caller keeps ownership: Model.Close never shuts it down.
func WithExecutor(executor Executor) Option {
	return func(o *options) {
		o.executor = executor
		o.executorSet = true
	}
}

// WithRegistry loads the shared encoder from r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records call metrics in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider sets the provider for spans; defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithCache keeps up to size encodings in a per-model LRU cache. 0 disables it.
func WithCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithDimension overrides the known output dimension of the model spec.
func WithDimension(dim int) Option {
	return func(o *options) { o.dimension = dim }
}

// New loads the shared encoder for spec from the registry and returns a model over it.
func New(ctx context.Context, spec ModelSpec, opts ...Option) (*Model, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	registry := o.registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	encoder, err := registry.Load(ctx, spec)
	if err != nil {
		return nil, err
	}
	return newModel(spec, encoder, o), nil
}

// NewWithEncoder returns a model over an already constructed encoder.
func NewWithEncoder(spec ModelSpec, encoder Encoder, opts ...Option) (*Model, error) {
	if encoder == nil {
		return nil, fmt.Errorf("%w: encoder is nil", ErrInvalidArgument)
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return newModel(spec, encoder, o), nil
}

func buildOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.executorSet && o.executor == nil {
		return nil, fmt.Errorf("%w: executor is nil", ErrInvalidArgument)
	}
	if o.cacheSize < 0 {
		return nil, fmt.Errorf("%w: cache size %d", ErrInvalidArgument, o.cacheSize)
	}
	return o, nil
}

func newModel(spec ModelSpec, encoder Encoder, o *options) *Model {
	m := &Model{
		spec:     spec,
		encoder:  encoder,
		executor: o.executor,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	if o.dimension > 0 {
		m.spec.Dimension = o.dimension
	}
	if m.executor == nil {
		m.executor = NewBoundedExecutor(0)
		m.ownsExecutor = true
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if o.cacheSize > 0 {
		m.encoder = newCachingEncoder(encoder, o.cacheSize)
	}
	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	m.tracer = tp.Tracer(tracerName)
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.spec.Name }

// Spec returns the model spec, with any dimension override applied.
func (m *Model) Spec() ModelSpec { return m.spec }

// Embed embeds a single text.
func (m *Model) Embed(ctx context.Context, text string) (*Response[[]float32], error) {
	resp, err := m.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return &Response[[]float32]{Content: resp.Content[0], Usage: resp.Usage}, nil
}

// EmbedAll embeds texts concurrently and returns the vectors in input order.
// The first failing text aborts the call; no partial result is returned.
// Usage is the sum over all texts, or nil if the encoder does not report it.
func (m *Model) EmbedAll(ctx context.Context, texts []string) (*Response[[][]float32], error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if len(texts) == 0 {
		return &Response[[][]float32]{Content: [][]float32{}}, nil
	}

	ctx, span := m.tracer.Start(ctx, "embedding.EmbedAll", trace.WithAttributes(
		attribute.String("embedding.model", m.spec.Name),
		attribute.Int("embedding.texts", len(texts)),
	))
	defer span.End()

	start := time.Now()
	encodings, err := m.dispatch(ctx, texts)
	took := time.Since(start)
	if err != nil {
		m.metrics.observe(m.spec.Name, len(texts), nil, took, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	vectors := make([][]float32, len(encodings))
	usage := &TokenUsage{}
	for i, enc := range encodings {
		vectors[i] = enc.Vector
		usage = usage.Add(enc.Usage)
	}
	m.metrics.observe(m.spec.Name, len(texts), usage, took, nil)
	if usage != nil {
		span.SetAttributes(attribute.Int("embedding.input_tokens", usage.InputTokens))
	}
	m.logger.Debug("embedded texts",
		zap.String("model", m.spec.Name),
		zap.Int("texts", len(texts)),
		zap.Duration("took", took))
	return &Response[[][]float32]{Content: vectors, Usage: usage}, nil
}

// dispatch submits one task per text and waits until all of them finished or
// one failed. Results are stored by index, so completion order does not matter.
func (m *Model) dispatch(parent context.Context, texts []string) ([]Encoding, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		results   = make([]Encoding, len(texts))
		remaining atomic.Int64
		done      = make(chan struct{})
		failed    = make(chan struct{})
		failOnce  sync.Once
		firstErr  error
	)
	remaining.Store(int64(len(texts)))
	finish := func() {
		if remaining.Add(-1) == 0 {
			close(done)
		}
	}
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			close(failed)
			cancel()
		})
	}

	for i, text := range texts {
		err := m.executor.Execute(func() {
			defer finish()
			if ctx.Err() != nil {
				return
			}
			enc, err := m.encoder.Encode(ctx, text)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fail(&InferenceError{Index: i, Err: err})
				return
			}
			results[i] = enc
		})
		if err != nil {
			fail(fmt.Errorf("failed to submit embedding task: %w", err))
			for range texts[i:] {
				finish()
			}
			break
		}
	}

	select {
	case <-failed:
		return nil, firstErr
	case <-parent.Done():
		return nil, parent.Err()
	case <-done:
	}
	select {
	case <-failed:
		return nil, firstErr
	default:
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Dimension returns the length of the vectors this model produces. Without a
// known dimension it embeds a sample text once and caches the result; a failed
// measurement is retried on the next call.
func (m *Model) Dimension(ctx context.Context) (int, error) {
	if m.spec.Dimension > 0 {
		return m.spec.Dimension, nil
	}
	m.dimMu.Lock()
	defer m.dimMu.Unlock()
	if m.dim > 0 {
		return m.dim, nil
	}
	resp, err := m.Embed(ctx, sampleText)
	if err != nil {
		return 0, fmt.Errorf("failed to measure embedding dimension: %w", err)
	}
	m.dim = len(resp.Content)
	m.logger.Debug("measured embedding dimension",
		zap.String("model", m.spec.Name),
		zap.Int("dimension", m.dim))
	return m.dim, nil
}

// Close releases the executor if the model created it. The shared encoder is
// owned by the registry and stays loaded.
func (m *Model) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if m.ownsExecutor {
		if c, ok := m.executor.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

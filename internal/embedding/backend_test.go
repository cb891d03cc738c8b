package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/embedder/internal/bert"
)

type fakeBertModel struct {
	tokens int
	err    error
	closed bool
}

func (f *fakeBertModel) Encode(string) ([]float32, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return []float32{1, 0}, f.tokens, nil
}

func (f *fakeBertModel) Close() error {
	f.closed = true
	return nil
}

func TestBertEncoder(t *testing.T) {
	ctx := context.Background()

	enc := &bertEncoder{model: &fakeBertModel{tokens: 4}}
	got, err := enc.Encode(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, &TokenUsage{InputTokens: 4}, got.Usage)

	enc = &bertEncoder{model: &fakeBertModel{tokens: -1}}
	got, err = enc.Encode(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, got.Usage, "negative token counts mean usage is not reported")

	boom := errors.New("boom")
	enc = &bertEncoder{model: &fakeBertModel{err: boom}}
	_, err = enc.Encode(ctx, "x")
	assert.ErrorIs(t, err, boom)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = enc.Encode(canceled, "x")
	assert.ErrorIs(t, err, context.Canceled)

	model := &fakeBertModel{}
	require.NoError(t, (&bertEncoder{model: model}).Close())
	assert.True(t, model.closed)
}

func TestNewEncoderFactory(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewEncoderFactory("tpu", BackendOptions{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("hash backend uses spec dimension", func(t *testing.T) {
		factory, err := NewEncoderFactory(BackendHash, BackendOptions{})
		require.NoError(t, err)
		enc, err := factory(nil, nil, BgeSmallZhV15Q)
		require.NoError(t, err)
		got, err := enc.Encode(context.Background(), "hello")
		require.NoError(t, err)
		assert.Len(t, got.Vector, 512)
	})

	t.Run("ort backend rejects malformed tokenizer", func(t *testing.T) {
		factory, err := NewEncoderFactory(BackendORT, BackendOptions{})
		require.NoError(t, err)
		_, err = factory([]byte("graph"), []byte("{broken"), BgeSmallZhV15Q)
		assert.ErrorIs(t, err, bert.ErrMalformedVocabulary)
	})

	t.Run("registry reports factory failures as model load errors", func(t *testing.T) {
		factory, err := NewEncoderFactory(BackendORT, BackendOptions{})
		require.NoError(t, err)
		resources := testResources()
		resources["bge-small-zh-v1.5-tokenizer.json"].Data = []byte("{broken")
		reg := NewRegistry(NewFSLoader(resources), factory)
		_, err = reg.Load(context.Background(), BgeSmallZhV15Q)
		assert.ErrorIs(t, err, ErrModelLoad)
		assert.ErrorIs(t, err, bert.ErrMalformedVocabulary)
	})
}

func TestHashEncoder(t *testing.T) {
	ctx := context.Background()
	enc := NewHashEncoder(0)
	assert.Equal(t, defaultHashDimensions, enc.Dimensions())

	a, err := enc.Encode(ctx, "same text")
	require.NoError(t, err)
	b, err := enc.Encode(ctx, "same text")
	require.NoError(t, err)
	assert.Equal(t, a.Vector, b.Vector)
	assert.Equal(t, &TokenUsage{InputTokens: 2}, a.Usage)

	c, err := enc.Encode(ctx, "other text")
	require.NoError(t, err)
	assert.NotEqual(t, a.Vector, c.Vector)

	_, err = enc.Encode(ctx, "\xff")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFSLoader(t *testing.T) {
	loader := NewFSLoader(testResources())
	data, err := loader.Open("e5-small-v2.onnx")
	require.NoError(t, err)
	assert.Equal(t, "graph-e5", string(data))

	_, err = loader.Open("missing.onnx")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = NewDirLoader(t.TempDir()).Open("missing.onnx")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

package embedding

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v.Vector != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", Encoding{Vector: []float32{1, 2, 3}})
	v, ok := c.Get("a")
	if !ok || len(v.Vector) != 3 || v.Vector[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", Encoding{Vector: []float32{4, 5}})
	c.Set("c", Encoding{Vector: []float32{6}}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCachingEncoder(t *testing.T) {
	var calls atomic.Int32
	next := EncoderFunc(func(_ context.Context, text string) (Encoding, error) {
		calls.Add(1)
		return Encoding{Vector: []float32{1, 2}, Usage: &TokenUsage{InputTokens: len(text)}}, nil
	})
	enc := newCachingEncoder(next, 10)
	ctx := context.Background()

	first, err := enc.Encode(ctx, "abc")
	require.NoError(t, err)
	first.Vector[0] = 99

	second, err := enc.Encode(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, second.Vector, "cached vector must not alias caller data")
	assert.Equal(t, &TokenUsage{InputTokens: 3}, second.Usage)
	assert.Equal(t, int32(1), calls.Load())
}

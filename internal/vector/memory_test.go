package vector

import (
	"context"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("results = %+v, want a then b", results)
	}

	all, err := idx.Search(ctx, []float32{0, 1, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "c" {
		t.Errorf("k=0 should return every vector best first, got %+v", all)
	}
}

func TestMemoryIndex_tiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y", "z"}, [][]float32{{1, 0}, {1, 0}, {1, 0}})
	results, err := idx.Search(ctx, []float32{1, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"x", "y", "z"} {
		if results[i].ID != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].ID, want)
		}
	}
}

func TestMemoryIndex_copiesVectors(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	vec := []float32{1, 0}
	_ = idx.Add(ctx, []string{"x"}, [][]float32{vec})
	vec[0] = -1
	results, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if results[0].Score != 1 {
		t.Errorf("index must not alias caller vectors, score = %f", results[0].Score)
	}
}

func TestMemoryIndex_errors(t *testing.T) {
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"x"}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := idx.Add(ctx, []string{"x"}, [][]float32{{1, 2, 3}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if idx.Size() != 0 {
		t.Errorf("failed Add must not change the index, size = %d", idx.Size())
	}
	if _, err := idx.Search(ctx, []float32{1}, 1); err == nil {
		t.Error("expected query dimension mismatch error")
	}
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := idx.Search(canceled, []float32{1, 0}, 1); err == nil {
		t.Error("expected context error")
	}
}

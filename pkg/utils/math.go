package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sum))
	for i := range x {
		x[i] *= norm
	}
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Returns 0 when the lengths differ or either vector is all zeros.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// WeightedAverage averages equally sized vectors, weighting each by weights[i].
// Returns nil if there are no vectors or the weights sum to zero.
func WeightedAverage(vectors [][]float32, weights []int) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}
	var total float64
	for _, w := range weights {
		total += float64(w)
	}
	if total == 0 {
		return nil
	}
	acc := make([]float64, len(vectors[0]))
	for i, v := range vectors {
		w := float64(weights[i]) / total
		for j := range acc {
			acc[j] += float64(v[j]) * w
		}
	}
	out := make([]float32, len(acc))
	for i, v := range acc {
		out[i] = float32(v)
	}
	return out
}

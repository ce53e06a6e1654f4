package core

import "math"

// CosineSimilarity returns the cosine similarity of two equal-length vectors:
// the dot product divided by the product of magnitudes. The result lies in
// [-1, 1]. When either vector has zero magnitude the similarity is undefined
// and 0 is returned.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against floating point drift past the mathematical bounds.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

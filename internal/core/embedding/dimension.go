package embedding

import (
	"math"
	"math/rand"
)

// AdjustDimension coerces a raw embedding to exactly target dimensions.
// Shorter vectors are right-padded with zeros; longer ones are reduced with a
// deterministic low-rank projection, so identical inputs always map to
// identical outputs.
func AdjustDimension(vec []float32, target int) []float32 {
	switch {
	case len(vec) == target:
		return vec
	case len(vec) < target:
		padded := make([]float32, target)
		copy(padded, vec)
		return padded
	default:
		return project(vec, target)
	}
}

// project applies a random projection whose matrix is seeded purely by the
// (source, target) dimension pair, so the same input always reduces to the
// same output with no shared state.
func project(vec []float32, target int) []float32 {
	seed := int64(len(vec))<<20 | int64(target)
	rng := rand.New(rand.NewSource(seed))

	out := make([]float32, target)
	scale := 1.0 / math.Sqrt(float64(target))
	for j := 0; j < target; j++ {
		var sum float64
		for _, v := range vec {
			sum += float64(v) * rng.NormFloat64()
		}
		out[j] = float32(sum * scale)
	}
	return out
}

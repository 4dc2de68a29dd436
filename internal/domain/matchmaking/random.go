package matchmaking

import "math/rand"

// WeightedChoice draws one index from weights via a cumulative-weight
// draw: sample r in [0, totalWeight), then subtract weights in order
// until the remainder crosses zero. Non-positive weights are skipped.
// Returns -1 when no weight is positive.
func WeightedChoice(weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	r := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		r -= w
		if r <= 0 {
			return i
		}
	}
	// Floating rounding can leave a sliver of r; the last positive
	// weight absorbs it.
	return last
}

// ReservoirSample returns k distinct indices drawn uniformly from
// [0, n) using reservoir sampling (algorithm R). When k >= n every
// index is returned. The result order is not meaningful.
func ReservoirSample(n, k int, rng *rand.Rand) []int {
	if k <= 0 || n <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = i
	}
	for i := k; i < n; i++ {
		j := rng.Intn(i + 1)
		if j < k {
			out[j] = i
		}
	}
	return out
}

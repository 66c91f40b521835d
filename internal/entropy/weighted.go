package entropy

// WeightedIndex draws an index with probability weight/total using a
// cumulative linear scan over one draw in [0, total). Non-positive weights
// never win. When no weight is positive the draw is uniform. Returns -1
// for an empty slice.
func WeightedIndex(src Source, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}

	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if total <= 0 {
		return src.Intn(len(weights))
	}

	r := src.Float64() * total
	cum := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if r < cum {
			return i
		}
	}
	// Float rounding can leave r a hair above the final sum.
	return last
}

// Pick returns a uniformly chosen element. ok is false for an empty slice.
func Pick[T any](src Source, items []T) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}
	return items[src.Intn(len(items))], true
}

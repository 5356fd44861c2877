package scheduler

// Interleave merges lists round-robin: the first element of each list in
// order, then the second of each, and so on. Exhausted lists are skipped, so
// one prolific source cannot crowd out the others at the head of the stream.
func Interleave[T any](lists [][]T) []T {
	total, longest := 0, 0
	for _, l := range lists {
		total += len(l)
		longest = max(longest, len(l))
	}
	out := make([]T, 0, total)
	for i := 0; i < longest; i++ {
		for _, l := range lists {
			if i < len(l) {
				out = append(out, l[i])
			}
		}
	}
	return out
}

// Cap returns at most n leading items. A non-positive n returns nothing.
func Cap[T any](items []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

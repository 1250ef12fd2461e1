package quiz

import "math/rand"

// Shuffle returns a new slice holding the same elements as src in uniformly
// random order. src is never modified. Fisher-Yates, walking from the last
// index down and swapping with a uniformly chosen earlier slot.
func Shuffle[T any](src []T, rng *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

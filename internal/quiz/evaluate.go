package quiz

// IsCorrect reports whether the selected options exactly match the answer
// key. Comparison is set-based: order doesn't matter and duplicates are
// collapsed before comparing. Single- and multi-answer questions go through
// the same rule.
func IsCorrect(selected, correct []string) bool {
	return setEqual(toSet(selected), toSet(correct))
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Package similarity provides overlap measures between categorical attribute sets.
package similarity

// SetOverlapRatio returns the Jaccard similarity of two string sets.
// Duplicates are ignored. If either set is empty the ratio is 0, so two
// profiles that both left a field blank never count as a perfect match.
func SetOverlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := toSet(a)
	setB := toSet(b)

	intersection := 0
	for v := range setA {
		if setB[v] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// SetDifferenceRatio returns 1 - SetOverlapRatio(a, b).
func SetDifferenceRatio(a, b []string) float64 {
	return 1.0 - SetOverlapRatio(a, b)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

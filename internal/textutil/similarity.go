package textutil

// DefaultThreshold is the similarity at which two titles are considered
// the same work.
const DefaultThreshold = 0.85

// Similarity scores two titles in [0, 1] after normalization.
func Similarity(a, b string) float64 {
	na, nb := []rune(Normalize(a)), []rune(Normalize(b))
	if string(na) == string(nb) {
		return 1.0
	}
	maxLen := max(len(na), len(nb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(na, nb))/float64(maxLen)
}

// SimilarityPtr is Similarity returning 0 when either title is nil.
func SimilarityPtr(a, b *string) float64 {
	if a == nil || b == nil {
		return 0
	}
	return Similarity(*a, *b)
}

// IsDuplicate reports whether the titles score at or above threshold.
func IsDuplicate(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}

// levenshtein keeps a single row sized by the shorter input.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

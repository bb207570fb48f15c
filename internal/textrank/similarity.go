package textrank

import "math"

// Similarity returns the lexical similarity of two word lists: the number of
// shared distinct words divided by ln|A| + ln|B|. Empty inputs and a zero
// denominator (two one-word sentences) yield 0. The result is symmetric.
func Similarity(a, b []string) float64 {
	return setSimilarity(wordSet(a), wordSet(b))
}

func setSimilarity(w1, w2 map[string]struct{}) float64 {
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}
	denom := math.Log(float64(len(w1))) + math.Log(float64(len(w2)))
	if denom <= 0 {
		return 0
	}
	small, large := w1, w2
	if len(small) > len(large) {
		small, large = large, small
	}
	overlap := 0
	for w := range small {
		if _, ok := large[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / denom
}

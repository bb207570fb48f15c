package chat

import (
	"math"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "hello", "hello", 0},
		{"empty a", "", "hello", 5},
		{"empty b", "hello", "", 5},
		{"one substitution", "cat", "bat", 1},
		{"one insertion", "cat", "cart", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"typo", "how are you", "how ar you", 1},
		{"unicode substitution", "café", "cafe", 1},
		{"transposition counts twice", "ab", "ba", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LevenshteinDistance(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			if rev := LevenshteinDistance(tt.b, tt.a); rev != got {
				t.Errorf("not symmetric: %d vs %d", got, rev)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("", ""); got != 1 {
		t.Errorf("Ratio of empty strings = %v, want 1", got)
	}
	if got := Ratio("abc", "abc"); got != 1 {
		t.Errorf("Ratio identical = %v, want 1", got)
	}
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Errorf("Ratio disjoint = %v, want 0", got)
	}
	if got, want := Ratio("kitten", "sitting"), 1-3.0/7.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Ratio(kitten, sitting) = %v, want %v", got, want)
	}
}

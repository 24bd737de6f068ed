package suggest

import (
	"strings"

	"github.com/hyperjump/triage/internal/lexicon"
)

// LevenshteinDistance returns the number of single-rune edits turning a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rows are enough.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NearDuplicate reports whether a and b are the same text up to case, accents, spacing
// and an edit distance of at most ratio times the longer length.
func NearDuplicate(a, b string, ratio float64) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	longest := len([]rune(na))
	if n := len([]rune(nb)); n > longest {
		longest = n
	}
	return float64(LevenshteinDistance(na, nb)) <= ratio*float64(longest)
}

func normalize(s string) string {
	return strings.Join(lexicon.Tokenize(s), " ")
}

package classify

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// FuzzThreshold is the 0-100 similarity a pattern must reach when it does
// not appear verbatim in the text.
const FuzzThreshold = 85

// partialRatio returns the best 0-100 similarity between pattern and any
// equally sized window of text, mirroring a partial-ratio comparison. Both
// inputs are expected to be lower-cased already.
func partialRatio(pattern, text string) int {
	p := []rune(pattern)
	t := []rune(text)
	if len(p) == 0 || len(t) == 0 {
		return 0
	}
	if len(t) <= len(p) {
		return ratio(string(p), string(t))
	}

	best := 0
	for i := 0; i+len(p) <= len(t); i++ {
		if r := ratio(string(p), string(t[i:i+len(p)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func ratio(a, b string) int {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return (longest - dist) * 100 / longest
}

// FuzzyContains reports whether any pattern appears verbatim in text or
// matches a window of it with similarity >= threshold.
func FuzzyContains(text string, patterns []string, threshold int) bool {
	text = strings.ToLower(text)
	for _, pat := range patterns {
		if strings.Contains(text, pat) {
			return true
		}
		if partialRatio(pat, text) >= threshold {
			return true
		}
	}
	return false
}

package utils

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Ratio is a normalized Levenshtein similarity scaled to 0..100.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 * (total - 2*dist) / total
	if score < 0 {
		return 0
	}
	return score
}

// TokenSetRatio compares two strings as word sets, ignoring order and
// duplicates. It scores the shared-token core against each remainder
// and returns the best of the three comparisons.
func TokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 100
	}

	var inter, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	core := strings.Join(inter, " ")
	fullA := strings.TrimSpace(core + " " + strings.Join(onlyA, " "))
	fullB := strings.TrimSpace(core + " " + strings.Join(onlyB, " "))

	best := Ratio(core, fullA)
	if r := Ratio(core, fullB); r > best {
		best = r
	}
	if r := Ratio(fullA, fullB); r > best {
		best = r
	}
	return best
}

// FuzzyContains reports whether needle appears in haystack, either as an
// exact substring or as a sliding word window with token-set similarity
// at or above threshold. The window spans max(len(needle words), 3)
// words. Both inputs are compared lowercased.
func FuzzyContains(haystack, needle string, threshold int) bool {
	h := strings.ToLower(haystack)
	n := strings.ToLower(needle)

	if n == "" {
		return false
	}
	if strings.Contains(h, n) {
		return true
	}

	words := strings.Fields(h)
	window := len(strings.Fields(n))
	if window < 3 {
		window = 3
	}
	if len(words) < window {
		return TokenSetRatio(strings.Join(words, " "), n) >= threshold
	}

	for i := 0; i+window <= len(words); i++ {
		segment := strings.Join(words[i:i+window], " ")
		if TokenSetRatio(segment, n) >= threshold {
			return true
		}
	}
	return false
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}

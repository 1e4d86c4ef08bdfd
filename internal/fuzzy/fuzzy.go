// Package fuzzy scores how closely a query matches a piece of text.
//
// Comparison is done on Unicode code points after full case folding, so
// "Ö" and "ö" are equal and a two-byte rune counts as one edit.
package fuzzy

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Score bounds.
const (
	MaxScore = 100
	MinScore = 0
)

// Fold applies full Unicode case folding.
func Fold(s string) string {
	// A Caser keeps state between calls, so one is made per call.
	return cases.Fold().String(s)
}

// Contains reports whether text contains query, ignoring case.
func Contains(text, query string) bool {
	return strings.Contains(Fold(text), Fold(query))
}

// Distance returns the Levenshtein edit distance between a and b, counted in code points.
func Distance(a, b string) int {
	return distance([]rune(a), []rune(b))
}

func distance(a, b []rune) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// Score rates text against query on a 0..100 scale.
//
// A case-insensitive substring hit scores 100. Otherwise the score is
// floor(100 * (maxLen - distance) / maxLen) where maxLen is the longer of the
// two folded strings in code points.
func Score(text, query string) int {
	t, q := Fold(text), Fold(query)
	if strings.Contains(t, q) {
		return MaxScore
	}

	maxLen := max(utf8.RuneCountInString(t), utf8.RuneCountInString(q))
	if maxLen == 0 {
		return MaxScore
	}
	d := distance([]rune(t), []rune(q))
	return (maxLen - d) * MaxScore / maxLen
}

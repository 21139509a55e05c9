// Package simtext scores the similarity of two short strings (identifier
// names, literal text) for use as the leaf case of the node similarity
// formulas. It wraps go-difflib's SequenceMatcher, the same longest-matching-
// blocks ratio the original Python implementation got for free from the
// standard library's difflib.
package simtext

import "github.com/pmezard/go-difflib/difflib"

// Ratio returns the similarity of a and b in [0,1], rescaled from
// difflib's raw ratio r via (2r+1)/3 so that two completely unrelated
// strings still score 1/3 rather than 0: names that share no characters at
// all (e.g. "i" renamed to "x") are a far weaker signal of "this is a
// different thing" than, say, a Variable compared against a Constant, which
// the caller's type switch already rejects outright.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	sm := difflib.NewMatcher(splitChars(a), splitChars(b))
	r := sm.Ratio()
	return (2*r + 1) / 3
}

func splitChars(s string) []string {
	rs := []rune(s)
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

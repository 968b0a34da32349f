package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName builds the search key for a display name: lower case, Vietnamese
// diacritics stripped, whitespace collapsed. "Bia Tiger  Lốc" -> "bia tiger loc".
func FoldName(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, "đ", "d")
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits a folded name into tokens of at least two runes.
func Tokenize(input string) []string {
	parts := strings.Fields(FoldName(input))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// DiceCoefficient scores bigram overlap between two strings in [0,1].
func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	aPairs := bigrams(a)
	bPairs := bigrams(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	counts := map[string]int{}
	for _, p := range bPairs {
		counts[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if counts[p] > 0 {
			inter++
			counts[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}

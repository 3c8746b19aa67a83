package staticindex

import (
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokenize lowercases s, splits it into words and drops English stop words.
// Words containing digits are always kept; the stop word cleaner discards
// them.
func Tokenize(s string) []string {
	words := splitWords(s)
	if len(words) == 0 {
		return nil
	}
	kept := make(map[string]struct{})
	for _, w := range splitWords(stopwords.CleanString(strings.ToLower(s), "en", false)) {
		kept[w] = struct{}{}
	}

	out := words[:0]
	for _, w := range words {
		if _, ok := kept[w]; ok || strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			out = append(out, w)
		}
	}
	return out
}

// queryTerms tokenizes a query. A query made only of stop words falls back to
// its raw words so it still matches titles like "The End".
func queryTerms(q string) []string {
	if terms := Tokenize(q); len(terms) > 0 {
		return terms
	}
	return splitWords(q)
}

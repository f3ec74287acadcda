package normalize

import (
	"strings"
	"unicode"
)

var umlautFold = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss",
	'Ä': "Ae", 'Ö': "Oe", 'Ü': "Ue",
}

var adjectiveEndings = []string{"er", "es", "en", "em", "e"}

// Variants generates the search-variant set for an already title-normalized
// string T, per §4.1. The original T is always included; duplicates
// (case-insensitive) are removed, preserving first-seen order.
func Variants(t string) []string {
	ordered := []string{
		t,
		strings.ToLower(t),
		foldUmlauts(t),
		strings.ReplaceAll(t, "-", ""),
		strings.ReplaceAll(t, "-", " "),
		alphanumericOnly(t),
	}
	ordered = append(ordered, adjectiveEndingVariants(t)...)

	seen := make(map[string]struct{}, len(ordered))
	result := make([]string, 0, len(ordered))
	for _, v := range ordered {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, v)
	}
	return result
}

func foldUmlauts(s string) string {
	var b strings.Builder
	for _, r := range s {
		if rep, ok := umlautFold[r]; ok {
			b.WriteString(rep)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func alphanumericOnly(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// adjectiveEndingVariants emits, for every word of length >= 5 matching
// <stem><e|er|es|en|em>$, a variant of t with that one word's ending
// stripped (§4.1). Longer endings are preferred over shorter ones for a
// given word.
func adjectiveEndingVariants(t string) []string {
	words := strings.Fields(t)
	var variants []string

	for i, w := range words {
		if len(w) < 5 {
			continue
		}
		lw := strings.ToLower(w)
		for _, end := range adjectiveEndings {
			if len(w)-len(end) <= 0 {
				continue
			}
			if !strings.HasSuffix(lw, end) {
				continue
			}
			stem := w[:len(w)-len(end)]
			newWords := make([]string, len(words))
			copy(newWords, words)
			newWords[i] = stem
			variants = append(variants, strings.Join(newWords, " "))
			break
		}
	}
	return variants
}

package normalize

import "strings"

// publisherSeparators is the suffix grammar's separator list (§4.1).
var publisherSeparators = []string{" - ", " | ", " :: ", " ("}

// publisherTokens is the "known list" of publisher names §4.1 refers to.
// These are the common OER/educational publishers that show up as title
// suffixes in the repository this service protects.
var publisherTokens = []string{
	"Wikipedia", "Klexikon", "Wikibooks", "planet-schule", "Lehrer-Online",
	"sofatutor", "serlo", "ZUM", "ZUM-Unterrichten", "Segu Geschichte",
	"learnattack", "Schulminator", "meinUnterricht", "bpb", "LEIFIphysik",
	"Wikiversity", "Wiktionary",
}

// Title removes a trailing publisher suffix and normalizes whitespace/&,
// per §4.1. The function is idempotent.
func Title(title string) string {
	t := stripPublisherSuffix(title)
	t = strings.ReplaceAll(t, "&", " ")
	t = collapseWhitespace(t)
	return strings.TrimSpace(t)
}

// stripPublisherSuffix removes the first (leftmost) matching
// separator+publisher[+closing punctuation] suffix, extending to the end
// of the string.
func stripPublisherSuffix(t string) string {
	lower := strings.ToLower(t)
	bestIdx := -1

	for _, sep := range publisherSeparators {
		searchFrom := 0
		for {
			rel := strings.Index(lower[searchFrom:], sep)
			if rel < 0 {
				break
			}
			idx := searchFrom + rel
			remainder := t[idx+len(sep):]
			if matchesPublisherSuffix(remainder) {
				if bestIdx == -1 || idx < bestIdx {
					bestIdx = idx
				}
				break
			}
			searchFrom = idx + 1
		}
	}

	if bestIdx >= 0 {
		return t[:bestIdx]
	}
	return t
}

// matchesPublisherSuffix reports whether remainder is a known publisher
// name, optionally followed only by closing punctuation, to end of string.
func matchesPublisherSuffix(remainder string) bool {
	remLower := strings.ToLower(remainder)
	for _, pub := range publisherTokens {
		pubLower := strings.ToLower(pub)
		if !strings.HasPrefix(remLower, pubLower) {
			continue
		}
		rest := remainder[len(pub):]
		if rest == "" || isClosingPunctuation(rest) {
			return true
		}
	}
	return false
}

func isClosingPunctuation(s string) bool {
	for _, r := range s {
		switch r {
		case ')', ']', '.', '!', ' ':
			continue
		default:
			return false
		}
	}
	return true
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

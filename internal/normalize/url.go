// Package normalize implements the deterministic URL and title
// canonicalization rules from spec §4.1, plus the search-variant generator.
package normalize

import "strings"

// URL returns the canonical normalization key for rawURL per §4.1:
// lowercase, strip scheme and leading www., drop query/fragment, strip a
// trailing slash, and collapse known YouTube URL shapes to one canonical
// form. The empty string normalizes to the empty string, and by
// definition is never URL-exact with anything (§4.1).
func URL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}
	lowered := strings.ToLower(trimmed)

	if id := youtubeVideoID(lowered); id != "" {
		return "youtube.com/watch?v=" + id
	}

	key := stripScheme(lowered)
	key = strings.TrimPrefix(key, "www.")
	key = stripQueryAndFragment(key)
	key = strings.TrimSuffix(key, "/")
	return key
}

// URLExact reports whether two raw URLs are URL-exact per §4.1.
func URLExact(a, b string) bool {
	na, nb := URL(a), URL(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

func stripScheme(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return s
}

func stripQueryAndFragment(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

// youtubeVideoID recognizes the YouTube URL variants in §4.1 and extracts
// the embedded video id, or returns "" when rawLower isn't one of them.
// rawLower must already be lowercased.
func youtubeVideoID(rawLower string) string {
	host := stripScheme(rawLower)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case strings.HasPrefix(host, "youtu.be/"):
		return firstPathSegment(strings.TrimPrefix(host, "youtu.be/"))
	case strings.HasPrefix(host, "youtube.com/embed/"):
		return firstPathSegment(strings.TrimPrefix(host, "youtube.com/embed/"))
	case strings.HasPrefix(host, "youtube.com/shorts/"):
		return firstPathSegment(strings.TrimPrefix(host, "youtube.com/shorts/"))
	case strings.HasPrefix(host, "youtube.com/v/"):
		return firstPathSegment(strings.TrimPrefix(host, "youtube.com/v/"))
	case strings.HasPrefix(host, "youtube.com/watch"):
		return watchVideoID(host)
	}
	return ""
}

func firstPathSegment(s string) string {
	s = stripQueryAndFragment(s)
	s = strings.TrimSuffix(s, "/")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

func watchVideoID(s string) string {
	i := strings.IndexByte(s, '?')
	if i < 0 {
		return ""
	}
	query := s[i+1:]
	if j := strings.IndexByte(query, '#'); j >= 0 {
		query = query[:j]
	}
	for _, pair := range strings.Split(query, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 && kv[0] == "v" && kv[1] != "" {
			return kv[1]
		}
	}
	return ""
}

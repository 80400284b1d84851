package search

import (
	"regexp"

	"mvdan.cc/xurls/v2"
)

var urlShapeRe = regexp.MustCompile(`^https?://(?:www\.)?[-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b(?:[-a-zA-Z0-9()@:%_\+.~#?&//=]*)`)

var strictURLs = xurls.Strict()

// IsURL reports whether s starts with an http(s) URL that points at a named host.
func IsURL(s string) bool {
	return urlShapeRe.MatchString(s)
}

// FilterURLs keeps the URL-shaped entries of urls, in order, without duplicates.
func FilterURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if !IsURL(u) {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ExtractURLs finds URL-shaped substrings in free text, in order of
// appearance. limit <= 0 returns all of them.
func ExtractURLs(text string, limit int) []string {
	found := FilterURLs(strictURLs.FindAllString(text, -1))
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found
}

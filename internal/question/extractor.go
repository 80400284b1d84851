// Package question pulls the question a student is actually asking out of
// free-form Vietnamese or English text.
package question

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minQuestionLength is the shortest candidate, in characters, kept after cleanup.
const minQuestionLength = 6

// Extract returns the candidate questions found in text, ranked down to a
// single best candidate where the ranking rules allow. It never fails; blank
// input yields an empty slice.
func Extract(text string) []string {
	normalized := strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if normalized == "" {
		return []string{}
	}
	sentences := splitSentences(normalized)

	var found candidates

	// Explicit questions.
	for _, s := range sentences {
		if strings.HasSuffix(s, "?") {
			found.add(s)
		}
	}

	// Sentences opening with an interrogative or modal word.
	for _, s := range sentences {
		if startsWithQuestionWord.MatchString(strings.ToLower(s)) {
			found.add(s)
		}
	}

	// Implicit requests ("I want to know", "em muốn biết").
	for _, s := range sentences {
		if !found.has(s) && matchesAny(requestPhrases, strings.ToLower(s)) {
			found.add(s)
		}
	}

	// Topic-shaped requests, only when nothing else was found.
	if found.empty() {
		for _, s := range sentences {
			if matchesAny(topicPatterns, strings.ToLower(s)) {
				found.add(s)
			}
		}
	}

	// "I still don't understand." points at the sentence that follows.
	for i, s := range sentences {
		if i < len(sentences)-1 && matchesAny(unclearPatterns, strings.ToLower(s)) {
			found.add(sentences[i+1])
		}
	}

	return rank(cleanup(found.list))
}

func cleanup(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, q := range raw {
		q = leadingEnumeration.ReplaceAllString(strings.TrimSpace(q), "")
		q = greetingPreamble.ReplaceAllString(q, "")
		if utf8.RuneCountInString(q) >= minQuestionLength {
			cleaned = append(cleaned, q)
		}
	}
	return cleaned
}

// rank prefers question marks, then interrogative openers; among several it
// prefers domain keywords, then the longest.
func rank(cleaned []string) []string {
	var core []string
	for _, q := range cleaned {
		if strings.HasSuffix(q, "?") {
			core = append(core, q)
		}
	}
	if len(core) == 0 {
		for _, q := range cleaned {
			if startsWithQuestionWord.MatchString(strings.ToLower(q)) {
				core = append(core, q)
			}
		}
	}

	switch {
	case len(core) > 1:
		for _, q := range core {
			if domainKeywords.MatchString(strings.ToLower(q)) {
				return []string{q}
			}
		}
		return []string{longest(core)}
	case len(core) == 1:
		return core
	default:
		return cleaned
	}
}

func longest(list []string) string {
	best := list[0]
	for _, q := range list[1:] {
		if utf8.RuneCountInString(q) > utf8.RuneCountInString(best) {
			best = q
		}
	}
	return best
}

// splitSentences breaks after whitespace that follows . ! or ?, and on | and ;.
func splitSentences(text string) []string {
	var (
		out     []string
		current strings.Builder
		prev    rune
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '|' || r == ';':
			flush()
			prev = r
			continue
		case unicode.IsSpace(r) && (prev == '.' || prev == '!' || prev == '?'):
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
			flush()
			prev = r
			continue
		}
		current.WriteRune(r)
		prev = r
	}
	flush()
	return out
}

type candidates struct {
	list []string
	seen map[string]struct{}
}

func (c *candidates) add(s string) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[s]; ok {
		return
	}
	c.seen[s] = struct{}{}
	c.list = append(c.list, s)
}

func (c *candidates) has(s string) bool {
	_, ok := c.seen[s]
	return ok
}

func (c *candidates) empty() bool {
	return len(c.list) == 0
}

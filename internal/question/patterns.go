package question

import (
	"regexp"
	"strings"
)

// RE2's \b only knows ASCII word characters, which breaks on Vietnamese
// diacritics, so word edges are spelled out explicitly.
const (
	wordChars = `\p{L}\p{M}\p{N}_`
	leftEdge  = `(?:^|[^` + wordChars + `])`
	rightEdge = `(?:$|[^` + wordChars + `])`
)

var (
	englishQuestionWords = []string{
		"what", "why", "how", "when", "where", "who", "which", "whose", "whom",
		"can", "could", "would", "will", "is", "are", "do", "does", "did", "has",
		"have", "should", "may", "might", "explain", "tell", "describe",
		"elaborate", "clarify", "discuss", "advise",
	}
	vietnameseQuestionWords = []string{
		"gì", "sao", "làm sao", "khi nào", "ở đâu", "ai", "tại sao", "bao giờ",
		"như thế nào", "cái gì", "vì sao", "có phải", "làm thế nào", "hãy",
		"là gì", "thế nào", "cho biết", "giải thích", "trình bày", "nói về",
		"là ai", "thể nào",
	}

	// startsWithQuestionWord matches a lower-cased sentence that opens with an
	// interrogative or modal word of either language.
	startsWithQuestionWord = regexp.MustCompile(`^(?:` +
		alternation(englishQuestionWords) + `|` + alternation(vietnameseQuestionWords) + `)` + rightEdge)

	requestPhrases = compileAll(
		leftEdge+`(?:i\s+(?:want|need|would like)\s+to\s+(?:know|understand|learn))`,
		leftEdge+`(?:(?:can|could)\s+you\s+(?:explain|tell|clarify|help))`,
		leftEdge+`(?:(?:please|kindly)\s+(?:explain|tell|clarify|advise))`,
		leftEdge+`(?:i'm\s+(?:confused|unclear|interested)\s+about)`,
		leftEdge+`(?:(?:not|don't)\s+understand\s+how)`,
		`(?:what\s+is|how\s+to|how\s+can)`,

		leftEdge+`(?:(?:tôi|mình|em)\s+(?:muốn|cần|chưa)\s+(?:biết|hiểu))`,
		leftEdge+`(?:(?:bạn|thầy|anh|chị|cô|em)\s+(?:có thể|vui lòng|hãy)\s+(?:giải thích|cho biết|nói về))`,
		leftEdge+`(?:(?:xin|làm ơn|vui lòng)\s+(?:giải thích|cho biết|nói))`,
		leftEdge+`(?:(?:chưa|không|còn)\s+(?:rõ|hiểu|biết))`,
		leftEdge+`(?:là gì|để làm gì|làm sao)`,
	)

	topicPatterns = compileAll(
		`[a-zA-Z0-9_\-]+\s+(?:là gì|là ai|là cái gì|dùng để làm gì)`,
		`(?:what is|how to use|how to|how does)\s+[a-zA-Z0-9_\-]+`,
		`[a-zA-Z0-9_\-]+\s+(?:works|function|means|used for)`,
	)

	unclearPatterns = compileAll(
		`(?:tôi|mình|em)\s+(?:vẫn|còn|chưa)\s+(?:chưa|không)\s+(?:rõ|hiểu|biết)`,
		`(?:i|we)\s+(?:still|am|don't|do not)\s+(?:unclear|confused|understand|know)`,
	)

	domainKeywords = regexp.MustCompile(leftEdge + `(?:router|route|routing|nextjs|react|framework|javascript|phương pháp|cách|method)` + rightEdge)

	leadingEnumeration = regexp.MustCompile(`^\d+\s*[.)]\s*`)
	greetingPreamble   = regexp.MustCompile(`(?i)^(?:xin chào|cảm ơn|hello|thank you|hi|chào|kính gửi)[^.!?]+[,.]\s*`)
	whitespace         = regexp.MustCompile(`\s+`)
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

package summarize

import (
	"regexp"
	"strings"
	"unicode"
)

const periodMarker = "<period>"

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	sentenceEndRe  = regexp.MustCompile(`[.!?;…]['")\]]*`)
	compoundWordRe = regexp.MustCompile(`([\p{L}\p{M}\p{N}_]+)-([\p{L}\p{M}\p{N}_]+)`)
	wordTokenRe    = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+|\S`)

	// Applied in order; the periods of each are masked before splitting.
	abbreviations = []string{"TS.", "ThS.", "GS.", "PGS.", "TP.", "T.P", "Q.", "P.", "H.", "TW.", "UBND.", "HĐND."}

	vietnameseLetters = "aàáảãạăằắẳẵặâầấẩẫậeèéẻẽẹêềếểễệiìíỉĩịoòóỏõọôồốổỗộơờớởỡợuùúủũụưừứửữựyỳýỷỹỵđ"
)

// minTrailingWords is the word count a trailing unterminated fragment must exceed to be kept.
const minTrailingWords = 3

// Tokenizer segments Vietnamese (and plain Latin) text. It is stateless and safe
// for concurrent use.
type Tokenizer struct{}

func NewTokenizer() Tokenizer {
	return Tokenizer{}
}

// Sentences splits text on sentence-final punctuation.
func (Tokenizer) Sentences(text string) []string {
	original := strings.TrimSpace(text)
	if original == "" {
		return nil
	}

	normalized := whitespaceRe.ReplaceAllString(original, " ")
	for _, abbr := range abbreviations {
		normalized = strings.ReplaceAll(normalized, abbr, strings.ReplaceAll(abbr, ".", periodMarker))
	}

	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(normalized, -1) {
		if s := cleanSentence(normalized[last:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := cleanSentence(normalized[last:]); tail != "" && len(strings.Fields(tail)) > minTrailingWords {
		sentences = append(sentences, tail)
	}

	if len(sentences) == 0 {
		return []string{original}
	}
	return sentences
}

func cleanSentence(s string) string {
	s = strings.ReplaceAll(s, periodMarker, ".")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Words tokenizes a sentence, keeping hyphenated compounds whole and dropping
// stray punctuation.
func (Tokenizer) Words(sentence string) []string {
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(sentence, " "))
	if text == "" {
		return nil
	}
	text = compoundWordRe.ReplaceAllString(text, "${1}_${2}")

	tokens := wordTokenRe.FindAllString(text, -1)
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isNoiseChar(tok) {
			continue
		}
		tok = strings.ReplaceAll(tok, "_", "-")
		if strings.TrimSpace(tok) != "" {
			words = append(words, tok)
		}
	}
	return words
}

func isNoiseChar(tok string) bool {
	runes := []rune(tok)
	if len(runes) != 1 {
		return false
	}
	r := unicode.ToLower(runes[0])
	if strings.ContainsRune(vietnameseLetters, r) {
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

var stopWords = buildSet(
	"và", "của", "cho", "là", "để", "trong", "được", "với", "có", "không",
	"những", "một", "các", "đã", "này", "từ", "đến", "theo", "như", "nhưng",
	"còn", "về", "bị", "nhất", "qua", "lại", "vì", "khi", "nên", "người",
	"thì", "đây", "rằng", "mà", "nếu", "cũng", "tại", "tôi", "ra", "hay",
	"trên", "vào", "rồi", "mới", "sau", "sẽ", "thế", "vẫn", "làm", "đó",
	"ai", "mình", "chỉ", "nào", "bạn", "đang", "chúng", "đấy", "quá", "lên",
	"phải", "bởi", "thôi", "vậy", "rất", "cứ", "ở", "chưa", "lúc",
	"nhiều", "à", "anh", "thật", "đâu", "cùng", "nhé", "vừa", "chứ",
	"xuống", "sao", "vụ", "ừ", "ạ", "nha", "nói", "ấy", "dù",
)

// IsStopWord reports whether the lower-cased word is a Vietnamese stop word.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

func buildSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

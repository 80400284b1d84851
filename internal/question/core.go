package question

import "strings"

type Summarizer interface {
	Summarize(text string, maxSentences int) string
}

// Strategy selects how CoreQuestion narrows a text down to one question.
type Strategy int

const (
	// StrategyDirect extracts from the raw text, then keeps the best sentence.
	StrategyDirect Strategy = 1
	// StrategyPreSummarize condenses the text to three sentences before extracting.
	StrategyPreSummarize Strategy = 2
)

// CoreQuestion collapses whatever questions text contains into one concise
// sentence. The result is empty when nothing question-like is found.
func CoreQuestion(s Summarizer, text string, strategy Strategy) string {
	source := text
	if strategy == StrategyPreSummarize {
		source = s.Summarize(text, 3)
	}
	return s.Summarize(strings.Join(Extract(source), " "), 1)
}

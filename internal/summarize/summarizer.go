package summarize

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSentences = 5

	tfSmoothing = 0.4

	// Ranks closer than this are equal, so ties fall back to position.
	rankPrecision = 1e-9
)

// Summarizer picks the most representative sentences with latent semantic analysis.
type Summarizer struct {
	tokenizer Tokenizer
}

func NewSummarizer() *Summarizer {
	return &Summarizer{tokenizer: NewTokenizer()}
}

// Summarize returns at most maxSentences sentences of text, in their original
// order, joined by single spaces.
func (s *Summarizer) Summarize(text string, maxSentences int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}

	sentences := s.tokenizer.Sentences(text)
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	ranks := s.rank(sentences)
	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})

	picked := order[:maxSentences]
	sort.Ints(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

// rank scores each sentence by its weight in the reduced singular space.
func (s *Summarizer) rank(sentences []string) []float64 {
	ranks := make([]float64, len(sentences))

	dictionary := make(map[string]int)
	perSentence := make([]map[int]float64, len(sentences))
	for j, sentence := range sentences {
		counts := make(map[int]float64)
		for _, w := range s.tokenizer.Words(sentence) {
			w = strings.ToLower(w)
			if IsStopWord(w) {
				continue
			}
			row, ok := dictionary[w]
			if !ok {
				row = len(dictionary)
				dictionary[w] = row
			}
			counts[row]++
		}
		perSentence[j] = counts
	}
	if len(dictionary) == 0 {
		return ranks
	}

	matrix := mat.NewDense(len(dictionary), len(sentences), nil)
	for j, counts := range perSentence {
		maxTf := 0.0
		for _, c := range counts {
			maxTf = math.Max(maxTf, c)
		}
		if maxTf == 0 {
			continue
		}
		for row := 0; row < len(dictionary); row++ {
			matrix.Set(row, j, tfSmoothing+(1-tfSmoothing)*counts[row]/maxTf)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(matrix, mat.SVDThin) {
		return ranks
	}
	sigma := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	_, cols := v.Dims()
	for i := range sentences {
		var sum float64
		for k := 0; k < cols && k < len(sigma); k++ {
			value := v.At(i, k)
			sum += sigma[k] * sigma[k] * value * value
		}
		ranks[i] = math.Round(math.Sqrt(sum)/rankPrecision) * rankPrecision
	}
	return ranks
}

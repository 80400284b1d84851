package app

import (
	"context"
	"strings"

	"cmp-dialogue/internal/chain"
	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/question"
	"cmp-dialogue/internal/search"
)

const defaultResultCount = 5

type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, bool, error)
	FetchAll(ctx context.Context, urls []string) []*string
}

// SourceService finds and reads web sources for a student's question.
type SourceService struct {
	searcher   search.Searcher
	fetcher    ContentFetcher
	chains     ChainInvoker
	summarizer question.Summarizer
	log        logger.Logger
}

func NewSourceService(
	searcher search.Searcher,
	fetcher ContentFetcher,
	chains ChainInvoker,
	summarizer question.Summarizer,
	log logger.Logger,
) *SourceService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SourceService{
		searcher:   searcher,
		fetcher:    fetcher,
		chains:     chains,
		summarizer: summarizer,
		log:        log,
	}
}

// FindSources searches for the core question, then for a pre-summarized core
// question, then asks the link generator. It reports ErrNoLinks only when
// every stage came back empty.
func (s *SourceService) FindSources(ctx context.Context, query string, count, offset int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if count <= 0 {
		count = defaultResultCount
	}
	if offset < 0 {
		offset = 0
	}

	core := question.CoreQuestion(s.summarizer, query, question.StrategyDirect)
	if core == "" {
		core = query
	}
	if links := s.searchStage(ctx, "core_question", core, count, offset); len(links) > 0 {
		return links, nil
	}

	condensed := question.CoreQuestion(s.summarizer, query, question.StrategyPreSummarize)
	if condensed != "" {
		if links := s.searchStage(ctx, "pre_summarized", condensed, count, offset); len(links) > 0 {
			return links, nil
		}
	}

	out, err := s.chains.Invoke(ctx, chain.LinkGenerator, chain.Vars{Question: query})
	if err != nil {
		s.log.Error("sources", "link generation failed", map[string]interface{}{"error": err})
		return nil, ErrNoLinks
	}
	links := search.ExtractURLs(out, count)
	if len(links) == 0 {
		s.log.Warn("sources", "no links found", map[string]interface{}{"query": query})
		return nil, ErrNoLinks
	}
	return links, nil
}

func (s *SourceService) searchStage(ctx context.Context, stage, query string, count, offset int) []string {
	links, err := s.searcher.Search(ctx, query, count, offset)
	if err != nil {
		s.log.Error("sources", "search failed", map[string]interface{}{
			"stage": stage,
			"query": query,
			"error": err,
		})
		return nil
	}
	return links
}

func (s *SourceService) FetchContent(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrInvalidInput
	}
	text, ok, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoContent
	}
	return text, nil
}

// FetchContents reads every URL. Entries for pages that failed are empty
// strings; ErrNoContent means none of them yielded text.
func (s *SourceService) FetchContents(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, ErrInvalidInput
	}
	results := s.fetcher.FetchAll(ctx, urls)
	out := make([]string, len(results))
	found := false
	for i, r := range results {
		if r != nil {
			out[i] = *r
			found = true
		}
	}
	if !found {
		return nil, ErrNoContent
	}
	return out, nil
}

package search

import (
	"context"

	"cmp-dialogue/internal/logger"
)

type ResultCache interface {
	Get(ctx context.Context, query string, count, offset int) ([]string, bool, error)
	Set(ctx context.Context, query string, count, offset int, urls []string) error
}

// CachedSearcher serves repeated queries from a ResultCache. Cache failures
// only cost a cache miss.
type CachedSearcher struct {
	next  Searcher
	cache ResultCache
	log   logger.Logger
}

func NewCachedSearcher(next Searcher, cache ResultCache, log logger.Logger) *CachedSearcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedSearcher{next: next, cache: cache, log: log}
}

func (s *CachedSearcher) Search(ctx context.Context, query string, count, offset int) ([]string, error) {
	urls, hit, err := s.cache.Get(ctx, query, count, offset)
	if err != nil {
		s.log.Warn("search", "search cache read failed", map[string]interface{}{"error": err})
	} else if hit {
		return urls, nil
	}

	urls, err = s.next.Search(ctx, query, count, offset)
	if err != nil || len(urls) == 0 {
		return urls, err
	}
	if err := s.cache.Set(ctx, query, count, offset, urls); err != nil {
		s.log.Warn("search", "search cache write failed", map[string]interface{}{"error": err})
	}
	return urls, nil
}

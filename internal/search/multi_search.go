package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/services"
)

// MultiPhraseSearch executes multiple named phrase queries in parallel. The
// first failing query cancels the others and its error is returned.
func (s *Service) MultiPhraseSearch(ctx context.Context, multiQuery services.MultiPhraseQuery) (*services.MultiPhraseResult, error) {
	startTime := time.Now()

	if len(multiQuery.Queries) == 0 {
		return nil, internalErrors.NewValidationError("queries", "at least one query is required")
	}
	seen := make(map[string]bool, len(multiQuery.Queries))
	for _, nq := range multiQuery.Queries {
		if nq.Name == "" {
			return nil, internalErrors.NewValidationError("queries", "each query must have a non-empty name")
		}
		if seen[nq.Name] {
			return nil, internalErrors.NewValidationError("queries", fmt.Sprintf("duplicate query name '%s'", nq.Name))
		}
		seen[nq.Name] = true
	}

	var mu sync.Mutex
	results := make(map[string]services.SearchResult, len(multiQuery.Queries))

	g, gctx := errgroup.WithContext(ctx)
	for _, nq := range multiQuery.Queries {
		g.Go(func() error {
			result, err := s.PhraseSearch(gctx, services.PhraseQuery{
				Phrase:                   nq.Phrase,
				Slop:                     nq.Slop,
				Page:                     multiQuery.Page,
				PageSize:                 multiQuery.PageSize,
				RestrictSearchableFields: nq.RestrictSearchableFields,
				RetrivableFields:         nq.RetrivableFields,
			})
			if err != nil {
				return fmt.Errorf("error executing query '%s': %w", nq.Name, err)
			}
			mu.Lock()
			results[nq.Name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	processingTime := time.Since(startTime)
	return &services.MultiPhraseResult{
		Results:          results,
		TotalQueries:     len(multiQuery.Queries),
		ProcessingTimeMs: float64(processingTime.Nanoseconds()) / 1e6,
	}, nil
}

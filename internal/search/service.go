package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/index"
	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/internal/logging"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
	"github.com/gcbaptista/go-phrase-engine/internal/phrase"
	"github.com/gcbaptista/go-phrase-engine/internal/tokenizer"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
	"github.com/gcbaptista/go-phrase-engine/store"
)

const (
	defaultPageSize      = 10
	defaultDocsPerWorker = 1024
)

// Service implements phrase search for a single index.
// It fulfills the services.PhraseSearcher interface.
type Service struct {
	invertedIndex   *index.InvertedIndex
	documentStore   *store.DocumentStore
	settings        *config.IndexSettings
	workers         int
	docsPerWorker   int
	defaultPageSize int
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets how many document ranges of docsPerWorker candidates are
// matched concurrently per field.
func WithWorkers(workers, docsPerWorker int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.workers = workers
		}
		if docsPerWorker > 0 {
			s.docsPerWorker = docsPerWorker
		}
	}
}

// WithDefaultPageSize sets the page size used when a query does not set one.
func WithDefaultPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultPageSize = n
		}
	}
}

// WithMetrics reports query outcomes and matcher work to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new search Service.
func NewService(invIndex *index.InvertedIndex, docStore *store.DocumentStore, settings *config.IndexSettings, opts ...Option) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	s := &Service{
		invertedIndex:   invIndex,
		documentStore:   docStore,
		settings:        settings,
		workers:         1,
		docsPerWorker:   defaultDocsPerWorker,
		defaultPageSize: defaultPageSize,
		logger:          logging.WithComponent("search").With("index", settings.Name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// phraseTerm is one token of the query phrase and its offset in the phrase.
type phraseTerm struct {
	term   string
	offset int
}

// PhraseSearch finds documents containing the query phrase with its terms in
// order and a total displacement within the slop, in any searchable field.
func (s *Service) PhraseSearch(ctx context.Context, query services.PhraseQuery) (services.SearchResult, error) {
	startTime := time.Now()
	queryID := uuid.New().String()
	logger := s.logger.With("query_id", queryID)
	if requestID, ok := logging.RequestID(ctx); ok {
		logger = logger.With("request_id", requestID)
	}

	result, candidates, matches, err := s.phraseSearch(ctx, query, queryID, startTime)

	took := time.Since(startTime)
	switch {
	case err != nil:
		s.metrics.ObservePhraseQuery(s.settings.Name, metrics.OutcomeError, took, candidates, matches)
		logger.Warn("phrase query failed", "phrase", query.Phrase, "error", err)
	case result.Total == 0:
		s.metrics.ObservePhraseQuery(s.settings.Name, metrics.OutcomeNoResult, took, candidates, matches)
	default:
		s.metrics.ObservePhraseQuery(s.settings.Name, metrics.OutcomeHit, took, candidates, matches)
	}
	if err == nil {
		logger.Debug("phrase query evaluated", "phrase", query.Phrase, "slop", result.Slop,
			"candidates", candidates, "matches", matches, "total", result.Total, "took", took)
	}
	return result, err
}

func (s *Service) phraseSearch(ctx context.Context, query services.PhraseQuery, queryID string, startTime time.Time) (services.SearchResult, int, int, error) {
	fields, err := s.effectiveFields(query.RestrictSearchableFields)
	if err != nil {
		return services.SearchResult{}, 0, 0, err
	}

	slop := s.settings.DefaultSlop
	if query.Slop != nil {
		slop = *query.Slop
	}
	if slop < 0 {
		return services.SearchResult{}, 0, 0, internalErrors.NewValidationError("slop", "slop must not be negative")
	}
	if slop > s.settings.MaxSlop {
		return services.SearchResult{}, 0, 0, internalErrors.NewValidationError("slop",
			fmt.Sprintf("slop %d exceeds the index max_slop of %d", slop, s.settings.MaxSlop))
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}

	empty := services.SearchResult{
		Hits:     []services.HitResult{},
		Page:     page,
		PageSize: pageSize,
		Slop:     slop,
		QueryId:  queryID,
	}

	tokens := tokenizer.TokenizeWithPositions(query.Phrase, s.settings.StopWords)
	if len(tokens) == 0 {
		empty.Took = time.Since(startTime).Milliseconds()
		return empty, 0, 0, nil
	}
	terms := make([]phraseTerm, len(tokens))
	uniqueTerms := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for i, token := range tokens {
		terms[i] = phraseTerm{term: token.Term, offset: token.Position}
		if _, dup := seen[token.Term]; !dup {
			seen[token.Term] = struct{}{}
			uniqueTerms = append(uniqueTerms, token.Term)
		}
	}

	// same lock order as the indexing service: store, then index
	s.documentStore.Mu.RLock()
	s.invertedIndex.Mu.RLock()
	defer s.documentStore.Mu.RUnlock()
	defer s.invertedIndex.Mu.RUnlock()

	bm25 := NewBM25Calculator(s.invertedIndex, s.documentStore)
	phraseIDF := bm25.PhraseIDF(uniqueTerms)

	merged := make(map[uint32]*candidateHit)
	totalCandidates, totalMatches := 0, 0
	for _, field := range fields {
		docs := s.invertedIndex.CandidateDocs(uniqueTerms, field)
		if docs.IsEmpty() {
			continue
		}
		candidateIDs := docs.ToArray()
		totalCandidates += len(candidateIDs)

		hits, err := s.matchField(ctx, field, terms, candidateIDs, slop)
		if err != nil {
			return services.SearchResult{}, totalCandidates, totalMatches, err
		}

		bm25.PrepareField(field)
		weight := s.settings.FieldWeight(field)
		for _, hit := range hits {
			totalMatches += hit.match.Matches
			candidate, ok := merged[hit.docID]
			if !ok {
				candidate = &candidateHit{docID: hit.docID, fieldMatches: make(map[string]services.FieldMatch)}
				merged[hit.docID] = candidate
			}
			candidate.fieldMatches[field] = hit.match
			candidate.score += weight * bm25.Score(phraseIDF, hit.match.Frequency, hit.docID, field)
		}
	}

	ranked := make([]*candidateHit, 0, len(merged))
	for _, candidate := range merged {
		ranked = append(ranked, candidate)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].docID < ranked[j].docID
	})

	totalHits := len(ranked)
	startIndex := (page - 1) * pageSize
	endIndex := startIndex + pageSize
	paginatedHits := []services.HitResult{}
	if startIndex < totalHits {
		if endIndex > totalHits {
			endIndex = totalHits
		}
		for _, candidate := range ranked[startIndex:endIndex] {
			doc, _ := s.documentStore.Get(candidate.docID)
			paginatedHits = append(paginatedHits, services.HitResult{
				Document:     projectDocument(doc, query.RetrivableFields),
				FieldMatches: candidate.fieldMatches,
				Score:        candidate.score,
			})
		}
	}

	return services.SearchResult{
		Hits:     paginatedHits,
		Total:    totalHits,
		Page:     page,
		PageSize: pageSize,
		Slop:     slop,
		Took:     time.Since(startTime).Milliseconds(),
		QueryId:  queryID,
	}, totalCandidates, totalMatches, nil
}

// effectiveFields returns the searchable fields of the query, validating that a
// restriction is a subset of the configured searchable fields.
func (s *Service) effectiveFields(restrict []string) ([]string, error) {
	if len(restrict) == 0 {
		return s.settings.SearchableFields, nil
	}
	for _, field := range restrict {
		if !s.settings.IsSearchable(field) {
			return nil, internalErrors.NewValidationError("restrict_searchable_fields",
				fmt.Sprintf("field '%s' is not configured as a searchable field in index settings", field))
		}
	}
	return restrict, nil
}

// matchField splits the candidate documents into contiguous ranges and matches
// them concurrently. Every range owns its cursors and matcher.
func (s *Service) matchField(ctx context.Context, field string, terms []phraseTerm, candidateIDs []uint32, slop int) ([]fieldHit, error) {
	numRanges := (len(candidateIDs) + s.docsPerWorker - 1) / s.docsPerWorker
	results := make([][]fieldHit, numRanges)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for r := 0; r < numRanges; r++ {
		lo := r * s.docsPerWorker
		hi := min(lo+s.docsPerWorker, len(candidateIDs))
		g.Go(func() error {
			hits, err := s.matchRange(gctx, field, terms, candidateIDs[lo:hi], slop)
			results[r] = hits
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var hits []fieldHit
	for _, rangeHits := range results {
		hits = append(hits, rangeHits...)
	}
	return hits, nil
}

// matchRange runs one matcher over ascending candidate documents.
func (s *Service) matchRange(ctx context.Context, field string, terms []phraseTerm, docIDs []uint32, slop int) ([]fieldHit, error) {
	cursors := make([]*index.PostingsCursor, len(terms))
	slots := make([]phrase.Slot, len(terms))
	for i, t := range terms {
		cursors[i] = index.NewPostingsCursor(s.invertedIndex.Postings(t.term), field)
		slots[i] = phrase.Slot{Postings: cursors[i], Offset: t.offset}
	}
	matcher, err := phrase.NewMatcher(slots, slop)
	if err != nil {
		return nil, fmt.Errorf("building phrase matcher: %w", err)
	}

	var hits []fieldHit
	for _, docID := range docIDs {
		if err := ctx.Err(); err != nil {
			return hits, err
		}
		target := phrase.DocID(docID)
		positioned := true
		for _, c := range cursors {
			if !c.Advance(target) || c.DocID() != target {
				positioned = false
				break
			}
		}
		if !positioned {
			continue
		}
		if err := matcher.Reset(target); err != nil {
			return hits, fmt.Errorf("matching document %d: %w", docID, err)
		}

		match := services.FieldMatch{MinWidth: -1}
		for matcher.NextMatch() {
			width := matcher.Width()
			match.Matches++
			match.Frequency += SloppyFrequency(width)
			if match.MinWidth < 0 || width < match.MinWidth {
				match.MinWidth = width
			}
		}
		if match.Matches > 0 {
			hits = append(hits, fieldHit{docID: docID, match: match})
		}
	}
	return hits, nil
}

// projectDocument returns doc restricted to fields, always keeping the documentID.
func projectDocument(doc model.Document, fields []string) model.Document {
	if len(fields) == 0 || doc == nil {
		return doc
	}
	projected := make(model.Document, len(fields)+1)
	if id, ok := doc["documentID"]; ok {
		projected["documentID"] = id
	}
	for _, field := range fields {
		if val, ok := doc[field]; ok {
			projected[field] = val
		}
	}
	return projected
}

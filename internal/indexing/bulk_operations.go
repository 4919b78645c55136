package indexing

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-phrase-engine/index"
	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/model"
)

// BulkIndexingConfig contains configuration for bulk indexing operations
type BulkIndexingConfig struct {
	BatchSize        int // Number of documents tokenized and applied together
	WorkerCount      int // Number of parallel tokenizing workers
	ProgressCallback func(processed, total int, message string)
}

// DefaultBulkIndexingConfig returns sensible defaults for bulk indexing
func DefaultBulkIndexingConfig() BulkIndexingConfig {
	return BulkIndexingConfig{
		BatchSize:   1000,
		WorkerCount: runtime.NumCPU(),
	}
}

// BulkIndexer indexes large document sets. Tokenization runs in parallel
// without locks; postings are applied one batch at a time under the write locks.
type BulkIndexer struct {
	service *Service
	config  BulkIndexingConfig
}

// NewBulkIndexer creates a new bulk indexer with the given configuration
func NewBulkIndexer(service *Service, config BulkIndexingConfig) *BulkIndexer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBulkIndexingConfig().BatchSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	return &BulkIndexer{service: service, config: config}
}

// Config returns the configuration the bulk indexer runs with.
func (bi *BulkIndexer) Config() BulkIndexingConfig {
	return bi.config
}

// preparedDoc is a document tokenized ahead of its write.
type preparedDoc struct {
	externalID string
	doc        model.Document
	fields     map[string]map[string][]int // field -> term -> positions
}

// BulkAddDocuments adds or replaces docs. Every documentID is validated before
// anything is written. Batches applied before a cancellation stay indexed.
func (bi *BulkIndexer) BulkAddDocuments(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	for i, doc := range docs {
		if _, ok := doc.GetDocumentID(); !ok {
			return fmt.Errorf("document %d: %w", i,
				internalErrors.NewValidationError("documentID", "documentID must be a non-empty string"))
		}
	}

	start := time.Now()
	batches := make([][]preparedDoc, (len(docs)+bi.config.BatchSize-1)/bi.config.BatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bi.config.WorkerCount)
	for b := range batches {
		lo := b * bi.config.BatchSize
		hi := min(lo+bi.config.BatchSize, len(docs))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batches[b] = bi.prepareBatch(docs[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bulk tokenization failed: %w", err)
	}

	processed := 0
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			bi.service.metrics.AddDocumentsIndexed(bi.service.indexName(), processed)
			return fmt.Errorf("bulk indexing interrupted after %d documents: %w", processed, err)
		}
		bi.applyBatch(batch)
		processed += len(batch)
		if bi.config.ProgressCallback != nil {
			bi.config.ProgressCallback(processed, len(docs),
				fmt.Sprintf("Indexed %d/%d documents", processed, len(docs)))
		}
	}

	bi.service.metrics.AddDocumentsIndexed(bi.service.indexName(), processed)
	duration := time.Since(start)
	bi.service.logger.Info("bulk indexing completed",
		"count", len(docs), "took", duration, "docs_per_sec", float64(len(docs))/duration.Seconds())
	return nil
}

func (bi *BulkIndexer) prepareBatch(docs []model.Document) []preparedDoc {
	settings := bi.service.invertedIndex.Settings
	prepared := make([]preparedDoc, 0, len(docs))
	for _, doc := range docs {
		externalID, _ := doc.GetDocumentID()
		p := preparedDoc{
			externalID: externalID,
			doc:        doc,
			fields:     make(map[string]map[string][]int, len(settings.SearchableFields)),
		}
		for _, fieldName := range settings.SearchableFields {
			if positions := termPositions(doc, fieldName, settings.StopWords); positions != nil {
				p.fields[fieldName] = positions
			}
		}
		prepared = append(prepared, p)
	}
	return prepared
}

// applyBatch writes prepared documents in input order, so a later duplicate
// documentID replaces an earlier one.
func (bi *BulkIndexer) applyBatch(batch []preparedDoc) {
	s := bi.service
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	for _, p := range batch {
		internalID, exists := s.documentStore.ExternalIDtoInternalID[p.externalID]
		if exists {
			if oldDoc, ok := s.documentStore.Docs[internalID]; ok {
				s.removePostingsUnsafe(internalID, oldDoc)
			}
		} else {
			internalID = s.documentStore.NextID
			s.documentStore.ExternalIDtoInternalID[p.externalID] = internalID
			s.documentStore.NextID++
		}
		s.documentStore.Docs[internalID] = p.doc

		for fieldName, terms := range p.fields {
			for term, positions := range terms {
				s.invertedIndex.Put(term, index.PostingEntry{
					DocID:     internalID,
					FieldName: fieldName,
					Positions: positions,
				})
			}
		}
	}
}

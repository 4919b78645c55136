package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/index"
	"github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/internal/indexing"
	"github.com/gcbaptista/go-phrase-engine/internal/search"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
	"github.com/gcbaptista/go-phrase-engine/store"
)

// IndexInstance holds all components and services for a single phrase index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	settings      *config.IndexSettings
	InvertedIndex *index.InvertedIndex
	DocumentStore *store.DocumentStore
	indexer       *indexing.Service
	bulkIndexer   *indexing.BulkIndexer
	searcher      *search.Service

	// writeMu serializes writes; retired is set once the engine drops or replaces the instance.
	writeMu sync.Mutex
	retired bool
}

var _ services.IndexAccessor = (*IndexInstance)(nil)

// newIndexInstance wires the services of an index around existing storage.
func (e *Engine) newIndexInstance(settings *config.IndexSettings, invIndex *index.InvertedIndex, docStore *store.DocumentStore) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}
	invIndex.Mu.Lock()
	invIndex.Settings = settings
	invIndex.Mu.Unlock()

	indexerService, err := indexing.NewService(invIndex, docStore, indexing.WithMetrics(e.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}

	searchOpts := append([]search.Option{search.WithMetrics(e.metrics)}, e.searchOpts...)
	searchService, err := search.NewService(invIndex, docStore, settings, searchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &IndexInstance{
		settings:      settings,
		InvertedIndex: invIndex,
		DocumentStore: docStore,
		indexer:       indexerService,
		bulkIndexer:   indexing.NewBulkIndexer(indexerService, e.bulkConfig),
		searcher:      searchService,
	}, nil
}

// AddDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) AddDocuments(docs []model.Document) error {
	return i.write(func() error { return i.indexer.AddDocuments(docs) })
}

// DeleteAllDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteAllDocuments() error {
	return i.write(i.indexer.DeleteAllDocuments)
}

// DeleteDocument delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteDocument(docID string) error {
	return i.write(func() error { return i.indexer.DeleteDocument(docID) })
}

func (i *IndexInstance) write(fn func() error) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()
	if i.retired {
		return errors.NewIndexNotFoundError(i.settings.Name)
	}
	return fn()
}

// bulkAdd indexes docs with the bulk indexer, reporting progress. Callers hold writeMu.
func (i *IndexInstance) bulkAdd(ctx context.Context, docs []model.Document, progress func(processed, total int, message string)) error {
	bulk := i.bulkIndexer
	if progress != nil {
		cfg := i.bulkIndexer.Config()
		cfg.ProgressCallback = progress
		bulk = indexing.NewBulkIndexer(i.indexer, cfg)
	}
	return bulk.BulkAddDocuments(ctx, docs)
}

// PhraseSearch delegates to the underlying search service.
func (i *IndexInstance) PhraseSearch(ctx context.Context, query services.PhraseQuery) (services.SearchResult, error) {
	return i.searcher.PhraseSearch(ctx, query)
}

// Settings returns the configuration settings for this index.
func (i *IndexInstance) Settings() config.IndexSettings {
	return *i.settings
}

// DocumentCount returns the number of documents stored in the index.
func (i *IndexInstance) DocumentCount() int {
	i.DocumentStore.Mu.RLock()
	defer i.DocumentStore.Mu.RUnlock()
	return i.DocumentStore.Len()
}

// documents returns a snapshot of every stored document.
func (i *IndexInstance) documents() []model.Document {
	i.DocumentStore.Mu.RLock()
	defer i.DocumentStore.Mu.RUnlock()

	docs := make([]model.Document, 0, len(i.DocumentStore.Docs))
	for _, doc := range i.DocumentStore.Docs {
		docs = append(docs, doc)
	}
	return docs
}

// MultiPhraseSearch delegates to the underlying search service.
func (i *IndexInstance) MultiPhraseSearch(ctx context.Context, query services.MultiPhraseQuery) (*services.MultiPhraseResult, error) {
	return i.searcher.MultiPhraseSearch(ctx, query)
}

package indexing

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gcbaptista/go-phrase-engine/index"
	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/internal/logging"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
	"github.com/gcbaptista/go-phrase-engine/internal/tokenizer"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/store"
)

// Process documents in micro-batches to minimize lock contention and allow
// phrase queries to interleave with large writes.
const microBatchSize = 10

// Service implements the indexing logic for a single index.
// It fulfills the services.Indexer interface.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	metrics       *metrics.Metrics
	logger        *slog.Logger
	// settings are accessible via invertedIndex.Settings
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics reports indexed and deleted documents to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new indexing Service.
// It assumes that invertedIndex.Settings is not nil.
func NewService(invertedIndex *index.InvertedIndex, documentStore *store.DocumentStore, opts ...Option) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if invertedIndex.Settings == nil {
		return nil, fmt.Errorf("inverted index settings cannot be nil")
	}
	if invertedIndex.Index == nil {
		invertedIndex.Index = make(map[string]index.PostingList)
	}
	if documentStore.Docs == nil {
		documentStore.Docs = make(map[uint32]model.Document)
	}
	if documentStore.ExternalIDtoInternalID == nil {
		documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	}

	s := &Service{
		invertedIndex: invertedIndex,
		documentStore: documentStore,
		logger:        logging.WithComponent("indexing").With("index", invertedIndex.Settings.Name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddDocuments adds or replaces a batch of documents.
// This satisfies the services.Indexer interface.
func (s *Service) AddDocuments(docs []model.Document) error {
	start := time.Now()
	indexed := 0
	for i := 0; i < len(docs); i += microBatchSize {
		end := min(i+microBatchSize, len(docs))

		n, err := s.addDocumentMicroBatch(docs[i:end])
		indexed += n
		if err != nil {
			s.metrics.AddDocumentsIndexed(s.indexName(), indexed)
			return fmt.Errorf("failed to add document micro-batch starting at index %d: %w", i, err)
		}

		// Yield so pending readers can take the locks between micro-batches.
		if end < len(docs) {
			time.Sleep(time.Millisecond)
		}
	}
	s.metrics.AddDocumentsIndexed(s.indexName(), indexed)
	s.logger.Debug("documents indexed", "count", indexed, "took", time.Since(start))
	return nil
}

// addDocumentMicroBatch indexes docs under the write locks and returns how
// many were indexed before any failure.
func (s *Service) addDocumentMicroBatch(docs []model.Document) (int, error) {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	for i, doc := range docs {
		if err := s.addSingleDocumentUnsafe(doc); err != nil {
			docID := "<unknown>"
			if idStr, ok := doc["documentID"].(string); ok {
				docID = idStr
			}
			return i, fmt.Errorf("failed to add document ID %s: %w", docID, err)
		}
	}
	return len(docs), nil
}

// addSingleDocumentUnsafe indexes one document, replacing the postings of a
// previous version. The caller holds both write locks.
func (s *Service) addSingleDocumentUnsafe(doc model.Document) error {
	docIDValue, docIDExists := doc["documentID"]
	if !docIDExists || docIDValue == nil {
		return internalErrors.NewValidationError("documentID", "documentID must be provided in the document data with key 'documentID'")
	}
	docIDStr, isString := docIDValue.(string)
	if !isString {
		return internalErrors.NewValidationError("documentID", "documentID has an invalid type, expected string")
	}
	docIDStr = strings.TrimSpace(docIDStr)
	if docIDStr == "" {
		return internalErrors.NewValidationError("documentID", "documentID cannot be empty or whitespace-only")
	}

	internalID, exists := s.documentStore.ExternalIDtoInternalID[docIDStr]
	if exists {
		if oldDoc, ok := s.documentStore.Docs[internalID]; ok {
			s.removePostingsUnsafe(internalID, oldDoc)
		} else {
			s.logger.Warn("document mapped but not stored, old postings cannot be cleaned up",
				"document_id", docIDStr, "internal_id", internalID)
		}
	} else {
		internalID = s.documentStore.NextID
		s.documentStore.ExternalIDtoInternalID[docIDStr] = internalID
		s.documentStore.NextID++
	}

	s.documentStore.Docs[internalID] = doc

	settings := s.invertedIndex.Settings
	for _, fieldName := range settings.SearchableFields {
		positions := termPositions(doc, fieldName, settings.StopWords)
		if positions == nil {
			s.logger.Debug("searchable field missing or empty", "document_id", docIDStr, "field", fieldName)
			continue
		}
		for term, termPositions := range positions {
			s.invertedIndex.Put(term, index.PostingEntry{
				DocID:     internalID,
				FieldName: fieldName,
				Positions: termPositions,
			})
		}
	}
	return nil
}

// termPositions tokenizes a document field and groups the ascending positions
// of every term. It returns nil when the field yields no tokens.
func termPositions(doc model.Document, fieldName string, stopWords []string) map[string][]int {
	text, ok := doc.FieldText(fieldName)
	if !ok || strings.TrimSpace(text) == "" {
		return nil
	}
	tokens := tokenizer.TokenizeWithPositions(text, stopWords)
	if len(tokens) == 0 {
		return nil
	}
	positions := make(map[string][]int)
	for _, token := range tokens {
		positions[token.Term] = append(positions[token.Term], token.Position)
	}
	return positions
}

// removePostingsUnsafe drops every posting the document contributed.
func (s *Service) removePostingsUnsafe(internalID uint32, doc model.Document) {
	settings := s.invertedIndex.Settings
	for _, fieldName := range settings.SearchableFields {
		for term := range termPositions(doc, fieldName, settings.StopWords) {
			s.invertedIndex.Drop(term, internalID, fieldName)
		}
	}
}

// DeleteAllDocuments removes all documents from the index, clearing both the document store and inverted index.
// This satisfies the services.Indexer interface.
func (s *Service) DeleteAllDocuments() error {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	removed := len(s.documentStore.Docs)
	s.documentStore.Docs = make(map[uint32]model.Document)
	s.documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	s.documentStore.NextID = 0
	s.invertedIndex.Index = make(map[string]index.PostingList)

	s.metrics.AddDocumentsDeleted(s.indexName(), removed)
	s.logger.Info("all documents deleted", "count", removed)
	return nil
}

// DeleteDocument removes a specific document from the index by its external ID.
// This satisfies the services.Indexer interface.
func (s *Service) DeleteDocument(docID string) error {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	internalID, exists := s.documentStore.ExternalIDtoInternalID[docID]
	if !exists {
		return internalErrors.NewDocumentNotFoundError(docID, s.indexName())
	}

	doc, docExists := s.documentStore.Docs[internalID]
	if !docExists {
		delete(s.documentStore.ExternalIDtoInternalID, docID)
		return fmt.Errorf("document with ID '%s' found in mapping but not in store (inconsistent state)", docID)
	}

	s.removePostingsUnsafe(internalID, doc)
	delete(s.documentStore.Docs, internalID)
	delete(s.documentStore.ExternalIDtoInternalID, docID)

	s.metrics.AddDocumentsDeleted(s.indexName(), 1)
	return nil
}

func (s *Service) indexName() string {
	return s.invertedIndex.Settings.Name
}

package services

import (
	"context"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/model"
)

// FieldMatch describes the phrase occurrences found in one field of a hit.
type FieldMatch struct {
	Frequency float64 `json:"frequency"` // Occurrences, weighted down by their sloppiness
	Matches   int     `json:"matches"`   // Raw number of occurrences
	MinWidth  int     `json:"min_width"` // Smallest displacement among the occurrences
}

// HitResult represents a single document in the search results,
// including the document itself and the fields the phrase was found in.
type HitResult struct {
	Document     model.Document        `json:"document"`
	FieldMatches map[string]FieldMatch `json:"field_matches"` // e.g., {"title": {...}, "body": {...}}
	Score        float64               `json:"score"`         // The overall score for this hit
}

type SearchResult struct {
	Hits     []HitResult `json:"hits"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Slop     int         `json:"slop"`     // Slop the query was evaluated with
	Took     int64       `json:"took"`     // milliseconds
	QueryId  string      `json:"query_id"` // unique UUID for this search query
}

// PhraseQuery asks for documents containing Phrase with its terms in order,
// allowing up to Slop positions of displacement.
type PhraseQuery struct {
	Phrase                   string   `json:"phrase"`
	Slop                     *int     `json:"slop,omitempty"` // Optional: defaults to the index's default_slop
	Page                     int      `json:"page,omitempty"`
	PageSize                 int      `json:"page_size,omitempty"`
	RestrictSearchableFields []string `json:"restrict_searchable_fields,omitempty"` // Optional: subset of searchable fields to search in
	RetrivableFields         []string `json:"retrivable_fields,omitempty"`          // Optional: subset of document fields to return in results
}

// NamedPhraseQuery is one query of a multi-phrase request. Paging comes from the request.
type NamedPhraseQuery struct {
	Name                     string   `json:"name"`
	Phrase                   string   `json:"phrase"`
	Slop                     *int     `json:"slop,omitempty"`
	RestrictSearchableFields []string `json:"restrict_searchable_fields,omitempty"`
	RetrivableFields         []string `json:"retrivable_fields,omitempty"`
}

// MultiPhraseQuery runs several named phrase queries against one index.
type MultiPhraseQuery struct {
	Queries  []NamedPhraseQuery `json:"queries"`
	Page     int                `json:"page,omitempty"`
	PageSize int                `json:"page_size,omitempty"`
}

// MultiPhraseResult holds the result of every query, keyed by query name.
type MultiPhraseResult struct {
	Results          map[string]SearchResult `json:"results"`
	TotalQueries     int                     `json:"total_queries"`
	ProcessingTimeMs float64                 `json:"processing_time_ms"`
}

// Indexer defines operations for adding data to an index
type Indexer interface {
	AddDocuments(docs []model.Document) error
	DeleteAllDocuments() error
	DeleteDocument(docID string) error
}

// PhraseSearcher defines phrase queries against an index
type PhraseSearcher interface {
	PhraseSearch(ctx context.Context, query PhraseQuery) (SearchResult, error)
	MultiPhraseSearch(ctx context.Context, query MultiPhraseQuery) (*MultiPhraseResult, error)
}

// IndexManager manages the lifecycle of indices
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error) // IndexAccessor combines Indexer and PhraseSearcher
	GetIndexSettings(name string) (config.IndexSettings, error)
	UpdateIndexSettings(name string, settings config.IndexSettings) error
	DeleteIndex(name string) error
	ListIndexes() []string
	PersistIndexData(indexName string) error
}

// JobManager defines operations for tracking background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(indexName string, status *model.JobStatus) []*model.Job
}

// AsyncIndexManager runs document writes as background jobs. Both methods
// return the ID of the job.
type AsyncIndexManager interface {
	IndexManager
	JobManager
	AddDocumentsAsync(indexName string, docs []model.Document) (string, error)
	DeleteAllDocumentsAsync(indexName string) (string, error)
}

type IndexAccessor interface {
	Indexer
	PhraseSearcher
	Settings() config.IndexSettings
	DocumentCount() int
}

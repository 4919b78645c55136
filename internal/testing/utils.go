// Package testing provides fixtures and helpers for testing the phrase engine.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
)

// TestIndexSettings returns settings for a test index with a title and a body field.
func TestIndexSettings(indexName string) config.IndexSettings {
	return config.IndexSettings{
		Name:             indexName,
		SearchableFields: []string{"title", "body"},
		DefaultSlop:      0,
		MaxSlop:          5,
		StopWords:        []string{"the", "a", "of"},
	}
}

// SampleDocuments returns a small corpus with exact, sloppy and out-of-order
// occurrences of "quick brown fox".
func SampleDocuments() []model.Document {
	return []model.Document{
		{"documentID": "exact", "title": "The quick brown fox", "body": "jumps over the lazy dog"},
		{"documentID": "sloppy", "title": "A quick and brown fox", "body": "nothing to see"},
		{"documentID": "reversed", "title": "fox brown quick", "body": "brown quick fox"},
		{"documentID": "body_only", "title": "Unrelated", "body": "a quick brown fox in the body"},
		{"documentID": "far", "title": "quick one two three four five six brown fox", "body": ""},
	}
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultJobPollingOptions returns default polling options
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		MaxAttempts: 100,
		Interval:    10 * time.Millisecond,
	}
}

// WaitForJobCompletion polls a job until it reaches a final status
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		job, err := jobManager.GetJob(jobID)
		require.NoError(t, err, "Failed to get job status")

		if job.Status.IsFinal() {
			return job
		}
		time.Sleep(opts.Interval)
	}
	t.Fatalf("Job %s did not finish within %d attempts", jobID, opts.MaxAttempts)
	return nil
}

// AssertJobCompleted checks that a job completed successfully with the expected properties
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedIndex string) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed; error: %s", job.Error)
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedIndex, job.IndexName, "Job index name should match")
	assert.NotNil(t, job.StartedAt, "Job should have started timestamp")
	assert.NotNil(t, job.CompletedAt, "Job should have completed timestamp")
}

// PhraseTestCase represents a phrase query and the document IDs it should return, in rank order.
type PhraseTestCase struct {
	Name        string
	Query       services.PhraseQuery
	ExpectedIDs []string
	ExpectError error // matched with errors.Is when set
}

// RunPhraseTests runs phrase queries and checks the ranked document IDs
func RunPhraseTests(t *testing.T, searcher services.PhraseSearcher, tests []PhraseTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			result, err := searcher.PhraseSearch(context.Background(), tt.Query)
			if tt.ExpectError != nil {
				require.ErrorIs(t, err, tt.ExpectError)
				return
			}
			require.NoError(t, err, "Phrase search should not fail")
			assert.Equal(t, len(tt.ExpectedIDs), result.Total, "Total should match")
			if len(tt.ExpectedIDs) == 0 {
				assert.Empty(t, result.Hits, "No hits expected")
			} else {
				assert.Equal(t, tt.ExpectedIDs, HitIDs(result), "Ranked document IDs should match")
			}
			assert.NotEmpty(t, result.QueryId, "Query ID should be set")
		})
	}
}

// HitIDs returns the documentIDs of the hits, in order.
func HitIDs(result services.SearchResult) []string {
	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, _ := hit.Document.GetDocumentID()
		ids = append(ids, id)
	}
	return ids
}

// IntPtr returns a pointer to v, for optional query fields like Slop.
func IntPtr(v int) *int {
	return &v
}

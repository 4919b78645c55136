package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-phrase-engine/config"
	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
	testutil "github.com/gcbaptista/go-phrase-engine/internal/testing"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
)

func newTestEngine(t *testing.T, dataDir string, opts ...Option) *Engine {
	t.Helper()
	eng := NewEngine(dataDir, opts...)
	t.Cleanup(eng.Close)
	return eng
}

func addDocuments(t *testing.T, eng *Engine, indexName string, docs []model.Document) *model.Job {
	t.Helper()
	jobID, err := eng.AddDocumentsAsync(indexName, docs)
	require.NoError(t, err)
	return testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())
}

func TestEngine_IndexLifecycle(t *testing.T) {
	dataDir := t.TempDir()
	eng := newTestEngine(t, dataDir)

	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("movies")))
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("books")))
	assert.Equal(t, []string{"books", "movies"}, eng.ListIndexes())

	err := eng.CreateIndex(testutil.TestIndexSettings("books"))
	assert.True(t, errors.Is(err, internalErrors.ErrIndexAlreadyExists))

	settings, err := eng.GetIndexSettings("books")
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "body"}, settings.SearchableFields)
	assert.FileExists(t, filepath.Join(dataDir, "books", settingsFile))

	require.NoError(t, eng.DeleteIndex("books"))
	assert.Equal(t, []string{"movies"}, eng.ListIndexes())
	_, err = os.Stat(filepath.Join(dataDir, "books"))
	assert.True(t, os.IsNotExist(err))

	_, err = eng.GetIndex("books")
	assert.True(t, errors.Is(err, internalErrors.ErrIndexNotFound))
	assert.True(t, errors.Is(eng.DeleteIndex("books"), internalErrors.ErrIndexNotFound))
	assert.True(t, errors.Is(eng.PersistIndexData("books"), internalErrors.ErrIndexNotFound))
}

func TestEngine_CreateIndexValidation(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())

	tests := []struct {
		name     string
		settings config.IndexSettings
	}{
		{"empty name", config.IndexSettings{SearchableFields: []string{"title"}}},
		{"no searchable fields", config.IndexSettings{Name: "x"}},
		{"default slop above max", config.IndexSettings{Name: "x", SearchableFields: []string{"title"}, DefaultSlop: 4, MaxSlop: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eng.CreateIndex(tt.settings)
			assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput), "got %v", err)
		})
	}
	assert.Empty(t, eng.ListIndexes())

	// max_slop defaults when omitted
	require.NoError(t, eng.CreateIndex(config.IndexSettings{Name: "defaults", SearchableFields: []string{"title"}}))
	settings, err := eng.GetIndexSettings("defaults")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxSlop, settings.MaxSlop)
}

func TestEngine_AddDocumentsAsync(t *testing.T) {
	m := metrics.New()
	eng := newTestEngine(t, t.TempDir(), WithMetrics(m), WithJobWorkers(1))
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("books")))

	job := addDocuments(t, eng, "books", testutil.SampleDocuments())
	testutil.AssertJobCompleted(t, job, model.JobTypeAddDocuments, "books")
	require.NotNil(t, job.Progress)
	assert.Equal(t, len(testutil.SampleDocuments()), job.Progress.Total)
	assert.Equal(t, "5", job.Metadata["document_count"])

	idx, err := eng.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, 5, idx.DocumentCount())

	result, err := idx.PhraseSearch(t.Context(), services.PhraseQuery{Phrase: "quick brown fox"})
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "body_only"}, testutil.HitIDs(result))

	jobs := eng.ListJobs("books", nil)
	assert.Len(t, jobs, 1)

	_, err = eng.AddDocumentsAsync("missing", testutil.SampleDocuments())
	assert.True(t, errors.Is(err, internalErrors.ErrIndexNotFound))
}

func TestEngine_AddDocumentsAsyncInvalidDocument(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("books")))

	job := addDocuments(t, eng, "books", []model.Document{
		{"documentID": "ok", "title": "quick brown fox"},
		{"title": "no identifier"},
	})
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "documentID")

	idx, err := eng.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, 0, idx.DocumentCount(), "nothing is written when a document is invalid")
}

func TestEngine_DeleteAllDocumentsAsync(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("books")))
	addDocuments(t, eng, "books", testutil.SampleDocuments())

	jobID, err := eng.DeleteAllDocumentsAsync("books")
	require.NoError(t, err)
	job := testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeDeleteAllDocs, "books")

	idx, err := eng.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, 0, idx.DocumentCount())
}

func TestEngine_ReloadFromDisk(t *testing.T) {
	dataDir := t.TempDir()
	query := services.PhraseQuery{Phrase: "quick brown fox", Slop: testutil.IntPtr(1)}

	first := NewEngine(dataDir, WithCompression(3))
	require.NoError(t, first.CreateIndex(testutil.TestIndexSettings("books")))
	addDocuments(t, first, "books", testutil.SampleDocuments())
	idx, err := first.GetIndex("books")
	require.NoError(t, err)
	want, err := idx.PhraseSearch(t.Context(), query)
	require.NoError(t, err)
	first.Close()

	// A stray file and a directory without settings are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "README"), []byte("x"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "broken"), 0750))

	second := newTestEngine(t, dataDir)
	assert.Equal(t, []string{"books"}, second.ListIndexes())

	idx, err = second.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, 5, idx.DocumentCount())
	got, err := idx.PhraseSearch(t.Context(), query)
	require.NoError(t, err)
	assert.Equal(t, testutil.HitIDs(want), testutil.HitIDs(got))
	assert.Equal(t, []string{"exact", "sloppy", "body_only"}, testutil.HitIDs(got))
}

func TestEngine_UpdateIndexSettings(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("books")))
	addDocuments(t, eng, "books", testutil.SampleDocuments())

	// Slop limits only
	settings := testutil.TestIndexSettings("books")
	settings.DefaultSlop = 1
	require.NoError(t, eng.UpdateIndexSettings("books", settings))

	idx, err := eng.GetIndex("books")
	require.NoError(t, err)
	result, err := idx.PhraseSearch(t.Context(), services.PhraseQuery{Phrase: "quick brown fox"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Slop)
	assert.Equal(t, []string{"exact", "sloppy", "body_only"}, testutil.HitIDs(result))

	// Searchable fields change, postings are rebuilt
	settings.DefaultSlop = 0
	settings.SearchableFields = []string{"body"}
	require.NoError(t, eng.UpdateIndexSettings("books", settings))

	idx, err = eng.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, 5, idx.DocumentCount())
	result, err = idx.PhraseSearch(t.Context(), services.PhraseQuery{Phrase: "quick brown fox"})
	require.NoError(t, err)
	assert.Equal(t, []string{"body_only"}, testutil.HitIDs(result))

	settings.Name = "renamed"
	assert.True(t, errors.Is(eng.UpdateIndexSettings("books", settings), internalErrors.ErrInvalidInput))
	assert.True(t, errors.Is(eng.UpdateIndexSettings("missing", config.IndexSettings{SearchableFields: []string{"title"}}), internalErrors.ErrIndexNotFound))
}

func TestEngine_WritesToRetiredInstance(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("books")))
	idx, err := eng.GetIndex("books")
	require.NoError(t, err)

	require.NoError(t, eng.DeleteIndex("books"))
	err = idx.AddDocuments(testutil.SampleDocuments())
	assert.True(t, errors.Is(err, internalErrors.ErrIndexNotFound))
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/internal/engine"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
	testutil "github.com/gcbaptista/go-phrase-engine/internal/testing"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
)

func setupTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.NewEngine(t.TempDir())
	t.Cleanup(eng.Close)
	return eng
}

func setupTestRouter(eng *engine.Engine, cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, eng, cfg)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// setupSampleIndex creates "books" and indexes the sample documents through the API.
func setupSampleIndex(t *testing.T, eng *engine.Engine, router http.Handler) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/indexes", testutil.TestIndexSettings("books"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPut, "/indexes/books/documents", testutil.SampleDocuments())
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	job := testutil.WaitForJobCompletion(t, eng, accepted.JobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeAddDocuments, "books")
}

func TestCreateIndexHandler(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "valid index creation",
			requestBody:    testutil.TestIndexSettings("test_index_create"),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate index",
			requestBody:    testutil.TestIndexSettings("test_index_create"),
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCodeIndexExists,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "missing index name",
			requestBody:    config.IndexSettings{SearchableFields: []string{"title"}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "path separator in name",
			requestBody:    config.IndexSettings{Name: "../escape", SearchableFields: []string{"title"}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "default slop above max slop",
			requestBody:    config.IndexSettings{Name: "slop", SearchableFields: []string{"title"}, DefaultSlop: 3, MaxSlop: 1},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/indexes", tt.requestBody)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCode != "" {
				var apiErr APIError
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
				assert.Equal(t, tt.expectedCode, apiErr.Code)
			}
		})
	}

	assert.Equal(t, []string{"test_index_create"}, eng.ListIndexes())
}

func TestIndexHandlers_GetListDelete(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	w := doJSON(t, router, http.MethodGet, "/indexes", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"indexes":["books"],"count":1}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/indexes/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details struct {
		Settings      config.IndexSettings `json:"settings"`
		DocumentCount int                  `json:"document_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, 5, details.DocumentCount)
	assert.Equal(t, 5, details.Settings.MaxSlop)

	w = doJSON(t, router, http.MethodGet, "/indexes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/indexes/books", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/indexes/books", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddDocumentsHandler(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	require.NoError(t, eng.CreateIndex(testutil.TestIndexSettings("test_docs_add")))

	tests := []struct {
		name           string
		path           string
		requestBody    interface{}
		expectedStatus int
	}{
		{
			name:           "valid single document",
			path:           "/indexes/test_docs_add/documents",
			requestBody:    model.Document{"documentID": "doc1", "title": "quick brown fox"},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "valid document array",
			path: "/indexes/test_docs_add/documents",
			requestBody: []model.Document{
				{"documentID": "doc2", "title": "lazy dog"},
				{"documentID": "doc3", "body": "quick brown fox"},
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "missing documentID",
			path:           "/indexes/test_docs_add/documents",
			requestBody:    model.Document{"title": "no id"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "numeric documentID",
			path:           "/indexes/test_docs_add/documents",
			requestBody:    model.Document{"documentID": 12, "title": "numeric"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty array",
			path:           "/indexes/test_docs_add/documents",
			requestBody:    []model.Document{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "array of scalars",
			path:           "/indexes/test_docs_add/documents",
			requestBody:    []int{1, 2},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown index",
			path:           "/indexes/missing/documents",
			requestBody:    model.Document{"documentID": "doc1"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPut, tt.path, tt.requestBody)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDocumentDeletionHandlers(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	w := doJSON(t, router, http.MethodDelete, "/indexes/books/documents/exact", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, router, http.MethodDelete, "/indexes/books/documents/exact", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	idx, err := eng.GetIndex("books")
	require.NoError(t, err)
	assert.Equal(t, 4, idx.DocumentCount())

	w = doJSON(t, router, http.MethodDelete, "/indexes/books/documents", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	job := testutil.WaitForJobCompletion(t, eng, accepted.JobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeDeleteAllDocs, "books")
	assert.Equal(t, 0, idx.DocumentCount())

	w = doJSON(t, router, http.MethodDelete, "/indexes/missing/documents", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPhraseSearchHandler(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	tests := []struct {
		name           string
		path           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   ErrorCode
		expectedIDs    []string
	}{
		{
			name:           "exact phrase",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick brown fox"},
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"exact", "body_only"},
		},
		{
			name:           "sloppy phrase",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick brown fox", Slop: testutil.IntPtr(1)},
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"exact", "sloppy", "body_only"},
		},
		{
			name:           "restricted fields",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick brown fox", Slop: testutil.IntPtr(1), RestrictSearchableFields: []string{"title"}},
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"exact", "sloppy"},
		},
		{
			name:           "empty phrase",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "  "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative slop",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick", Slop: testutil.IntPtr(-1)},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "slop above the index maximum",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick", Slop: testutil.IntPtr(50)},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeSlopOutOfRange,
		},
		{
			name:           "unknown restricted field",
			path:           "/indexes/books/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick", RestrictSearchableFields: []string{"summary"}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeUnknownField,
		},
		{
			name:           "malformed body",
			path:           "/indexes/books/_phrase",
			requestBody:    `{"phrase": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown index",
			path:           "/indexes/missing/_phrase",
			requestBody:    PhraseRequest{Phrase: "quick"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, tt.path, tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				var apiErr APIError
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
				assert.Equal(t, tt.expectedCode, apiErr.Code)
				assert.NotEmpty(t, apiErr.RequestID)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var result services.SearchResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.expectedIDs, testutil.HitIDs(result))
			assert.NotEmpty(t, result.QueryId)
		})
	}
}

func TestMultiPhraseSearchHandler(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedIDs    map[string][]string
	}{
		{
			name: "named queries",
			requestBody: MultiPhraseRequest{Queries: []NamedPhraseRequest{
				{Name: "exact", Phrase: "quick brown fox"},
				{Name: "sloppy", Phrase: "quick brown fox", Slop: testutil.IntPtr(1)},
				{Name: "titles", Phrase: "quick brown fox", Slop: testutil.IntPtr(1), RestrictSearchableFields: []string{"title"}},
			}},
			expectedStatus: http.StatusOK,
			expectedIDs: map[string][]string{
				"exact":  {"exact", "body_only"},
				"sloppy": {"exact", "sloppy", "body_only"},
				"titles": {"exact", "sloppy"},
			},
		},
		{
			name:           "no queries",
			requestBody:    MultiPhraseRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate names",
			requestBody: MultiPhraseRequest{Queries: []NamedPhraseRequest{
				{Name: "q", Phrase: "quick"},
				{Name: "q", Phrase: "fox"},
			}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing phrase",
			requestBody: MultiPhraseRequest{Queries: []NamedPhraseRequest{
				{Name: "q"},
			}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "slop above the index maximum",
			requestBody: MultiPhraseRequest{Queries: []NamedPhraseRequest{
				{Name: "q", Phrase: "quick", Slop: testutil.IntPtr(50)},
			}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/indexes/books/_multi_phrase", tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var result services.MultiPhraseResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, len(tt.expectedIDs), result.TotalQueries)
			for name, ids := range tt.expectedIDs {
				assert.Equal(t, ids, testutil.HitIDs(result.Results[name]), name)
			}
		})
	}

	w := doJSON(t, router, http.MethodPost, "/indexes/missing/_multi_phrase",
		MultiPhraseRequest{Queries: []NamedPhraseRequest{{Name: "q", Phrase: "quick"}}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsHandler(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	for _, phrase := range []string{"quick brown fox", "Quick Brown Fox", "purple elephant"} {
		w := doJSON(t, router, http.MethodPost, "/indexes/books/_phrase", PhraseRequest{Phrase: phrase})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := doJSON(t, router, http.MethodPost, "/indexes/books/_phrase", PhraseRequest{Phrase: ""})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dashboard model.AnalyticsDashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.Equal(t, 3, dashboard.TotalSearches, "rejected requests are not tracked")
	assert.Equal(t, 1, dashboard.ActiveIndexes)
	assert.Equal(t, len(testutil.SampleDocuments()), dashboard.TotalDocuments)
	assert.Equal(t, []model.PopularPhrase{
		{Phrase: "quick brown fox", SearchCount: 2},
		{Phrase: "purple elephant", SearchCount: 1},
	}, dashboard.PopularPhrases)
	assert.Equal(t, []model.PopularPhrase{{Phrase: "purple elephant", SearchCount: 1}}, dashboard.ZeroResultPhrases)
}

func TestUpdateIndexSettingsHandler(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	w := doJSON(t, router, http.MethodPatch, "/indexes/books/settings", gin.H{"default_slop": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/indexes/books/_phrase", PhraseRequest{Phrase: "quick brown fox"})
	require.Equal(t, http.StatusOK, w.Code)
	var result services.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"exact", "sloppy", "body_only"}, testutil.HitIDs(result))

	w = doJSON(t, router, http.MethodPatch, "/indexes/books/settings", gin.H{"default_slop": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code, "default slop may not exceed max slop")

	w = doJSON(t, router, http.MethodPatch, "/indexes/missing/settings", gin.H{"default_slop": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobHandlers(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng, RouterConfig{})
	setupSampleIndex(t, eng, router)

	jobs := eng.ListJobs("books", nil)
	require.Len(t, jobs, 1)

	w := doJSON(t, router, http.MethodGet, "/jobs/"+jobs[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var job model.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, model.JobStatusCompleted, job.Status)

	w = doJSON(t, router, http.MethodGet, "/indexes/books/jobs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = doJSON(t, router, http.MethodGet, "/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, ErrorCodeJobNotFound, apiErr.Code)
}

func TestMiddleware(t *testing.T) {
	eng := setupTestEngine(t)
	m := metrics.New()
	router := setupTestRouter(eng, RouterConfig{MaxBodyBytes: 64, Metrics: m, MetricsPath: "/metrics"})

	t.Run("request ID is generated and echoed", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/indexes/missing", nil)
		generated := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, generated)
		var apiErr APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, generated, apiErr.RequestID)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "caller-id")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "caller-id", w.Header().Get(RequestIDHeader))
	})

	t.Run("body size limit", func(t *testing.T) {
		body := `{"name":"` + strings.Repeat("x", 100) + `","searchable_fields":["title"]}`
		w := doJSON(t, router, http.MethodPost, "/indexes", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("CORS preflight", func(t *testing.T) {
		w := doJSON(t, router, http.MethodOptions, "/indexes", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		doJSON(t, router, http.MethodGet, "/health", nil)
		w := doJSON(t, router, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"}`)
	})
}

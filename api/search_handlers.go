package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
)

// PhraseRequest defines the JSON body of a phrase query.
type PhraseRequest struct {
	Phrase                   string   `json:"phrase"`
	Slop                     *int     `json:"slop,omitempty"` // Optional: defaults to the index's default_slop
	Page                     int      `json:"page"`
	PageSize                 int      `json:"page_size"`
	RestrictSearchableFields []string `json:"restrict_searchable_fields,omitempty"`
	RetrivableFields         []string `json:"retrivable_fields,omitempty"`
}

// PhraseSearchHandler handles phrase queries against an index.
// Request Body: PhraseRequest
func (api *API) PhraseSearchHandler(c *gin.Context) {
	startTime := time.Now()
	indexName := c.Param("indexName")

	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrIndexNotFound) {
			SendIndexNotFoundError(c, indexName)
			return
		}
		SendInternalError(c, "get index", err)
		return
	}

	var req PhraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if result := ValidatePhraseRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	results, err := indexAccessor.PhraseSearch(c.Request.Context(), services.PhraseQuery{
		Phrase:                   req.Phrase,
		Slop:                     req.Slop,
		Page:                     req.Page,
		PageSize:                 req.PageSize,
		RestrictSearchableFields: req.RestrictSearchableFields,
		RetrivableFields:         req.RetrivableFields,
	})
	if err != nil {
		SendSearchError(c, indexName, err)
		return
	}

	api.analytics.TrackPhraseEvent(model.PhraseEvent{
		IndexName:    indexName,
		Phrase:       req.Phrase,
		Slop:         results.Slop,
		ResponseTime: time.Since(startTime),
		ResultCount:  results.Total,
	})

	c.JSON(http.StatusOK, results)
}

// NamedPhraseRequest is one query of a MultiPhraseRequest.
type NamedPhraseRequest struct {
	Name                     string   `json:"name"`
	Phrase                   string   `json:"phrase"`
	Slop                     *int     `json:"slop,omitempty"`
	RestrictSearchableFields []string `json:"restrict_searchable_fields,omitempty"`
	RetrivableFields         []string `json:"retrivable_fields,omitempty"`
}

// MultiPhraseRequest defines the JSON body of a multi-phrase query.
type MultiPhraseRequest struct {
	Queries  []NamedPhraseRequest `json:"queries"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// MultiPhraseSearchHandler runs several named phrase queries against an index.
// Request Body: MultiPhraseRequest
func (api *API) MultiPhraseSearchHandler(c *gin.Context) {
	startTime := time.Now()
	indexName := c.Param("indexName")

	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrIndexNotFound) {
			SendIndexNotFoundError(c, indexName)
			return
		}
		SendInternalError(c, "get index", err)
		return
	}

	var req MultiPhraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if result := ValidateMultiPhraseRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	query := services.MultiPhraseQuery{Page: req.Page, PageSize: req.PageSize}
	phrases := make(map[string]string, len(req.Queries))
	for _, named := range req.Queries {
		query.Queries = append(query.Queries, services.NamedPhraseQuery{
			Name:                     named.Name,
			Phrase:                   named.Phrase,
			Slop:                     named.Slop,
			RestrictSearchableFields: named.RestrictSearchableFields,
			RetrivableFields:         named.RetrivableFields,
		})
		phrases[named.Name] = named.Phrase
	}

	results, err := indexAccessor.MultiPhraseSearch(c.Request.Context(), query)
	if err != nil {
		SendSearchError(c, indexName, err)
		return
	}

	responseTime := time.Since(startTime)
	for name, result := range results.Results {
		api.analytics.TrackPhraseEvent(model.PhraseEvent{
			IndexName:    indexName,
			Phrase:       phrases[name],
			Slop:         result.Slop,
			ResponseTime: responseTime,
			ResultCount:  result.Total,
		})
	}

	c.JSON(http.StatusOK, results)
}

// GetAnalyticsHandler returns the phrase query dashboard.
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.analytics.GetDashboardData())
}

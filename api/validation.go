// Package api provides the HTTP surface of the phrase engine and the
// validation utilities its handlers share.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/model"
)

const maxPageSize = 100

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateIndexName validates an index name parameter
func ValidateIndexName(indexName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if indexName == "" {
		result.AddError("indexName", "Index name is required")
		return result
	}

	if strings.TrimSpace(indexName) != indexName {
		result.AddError("indexName", "Index name cannot have leading or trailing whitespace")
		return result
	}

	if strings.ContainsAny(indexName, `/\`) || indexName == "." || indexName == ".." {
		result.AddError("indexName", "Index name cannot contain path separators or be a relative path")
	}

	return result
}

// ValidateDocumentID validates a document ID
func ValidateDocumentID(documentID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if documentID == "" {
		result.AddError("documentID", "Document ID is required")
		return result
	}

	if strings.TrimSpace(documentID) != documentID {
		result.AddError("documentID", "Document ID cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateIndexSettings applies defaults to settings and validates them for creation
func ValidateIndexSettings(settings *config.IndexSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Index settings are required")
		return result
	}

	if settings.Name != "" {
		if nameResult := ValidateIndexName(settings.Name); nameResult.HasErrors() {
			for _, e := range nameResult.Errors {
				result.AddError("name", e.Message)
			}
		}
	}

	settings.ApplyDefaults()
	for _, conflict := range settings.Validate() {
		result.AddError("settings", conflict)
	}

	return result
}

// ValidateDocuments validates a slice of documents for addition
func ValidateDocuments(docs []model.Document) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(docs) == 0 {
		result.AddError("documents", "No documents provided")
		return result
	}

	for i, doc := range docs {
		docIDVal, exists := doc["documentID"]
		if !exists {
			result.AddError(fmt.Sprintf("documents[%d].documentID", i), "Document must have a 'documentID' field")
			continue
		}

		docIDStr, ok := docIDVal.(string)
		if !ok {
			result.AddError(fmt.Sprintf("documents[%d].documentID", i), "Document ID must be a string")
			continue
		}

		if strings.TrimSpace(docIDStr) == "" {
			result.AddError(fmt.Sprintf("documents[%d].documentID", i), "Document ID cannot be empty or whitespace-only")
			continue
		}
	}

	return result
}

// ValidatePagination rejects negative paging values and caps the page size.
// Zero values are left for the search service to default.
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if page < 0 {
		result.AddError("page", "Page number cannot be negative")
	}
	if pageSize < 0 {
		result.AddError("page_size", "Page size cannot be negative")
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize, result
}

// ValidatePhraseRequest checks the parts of a phrase request that do not
// depend on the index. Slop limits are checked against the index settings later.
func ValidatePhraseRequest(req *PhraseRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(req.Phrase) == "" {
		result.AddError("phrase", "Phrase is required")
	}
	if req.Slop != nil && *req.Slop < 0 {
		result.AddError("slop", "Slop cannot be negative")
	}

	var pageResult *ValidationResult
	req.Page, req.PageSize, pageResult = ValidatePagination(req.Page, req.PageSize)
	result.Errors = append(result.Errors, pageResult.Errors...)
	if result.HasErrors() {
		result.Valid = false
	}

	return result
}

// ValidateMultiPhraseRequest requires at least one query, and a unique name
// and a non-empty phrase for each.
func ValidateMultiPhraseRequest(req *MultiPhraseRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(req.Queries) == 0 {
		result.AddError("queries", "At least one query is required")
	}

	seen := make(map[string]bool, len(req.Queries))
	for i, query := range req.Queries {
		field := fmt.Sprintf("queries[%d]", i)
		name := strings.TrimSpace(query.Name)
		switch {
		case name == "":
			result.AddError(field+".name", "Query name is required")
		case seen[name]:
			result.AddError(field+".name", fmt.Sprintf("Query names must be unique: '%s' appears multiple times", name))
		}
		seen[name] = true

		if strings.TrimSpace(query.Phrase) == "" {
			result.AddError(field+".phrase", "Phrase is required")
		}
		if query.Slop != nil && *query.Slop < 0 {
			result.AddError(field+".slop", "Slop cannot be negative")
		}
	}

	var pageResult *ValidationResult
	req.Page, req.PageSize, pageResult = ValidatePagination(req.Page, req.PageSize)
	result.Errors = append(result.Errors, pageResult.Errors...)
	if result.HasErrors() {
		result.Valid = false
	}

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}

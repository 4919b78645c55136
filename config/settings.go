// Package config provides configuration structures for the phrase engine.
// It defines per-index settings and the process-level configuration file.
package config

import (
	"fmt"
	"strings"
)

const (
	// DefaultMaxSlop caps the slop a phrase query may request when the index does not set one.
	DefaultMaxSlop = 10
)

// IndexSettings contains all configuration options for a phrase index.
//
// SearchableFields order matters: a phrase matched in an earlier field weighs
// more than the same phrase matched in a later one.
type IndexSettings struct {
	Name             string   `json:"name" yaml:"name"`                           // Unique name for the index
	SearchableFields []string `json:"searchable_fields" yaml:"searchableFields"` // Fields indexed with positions, in priority order
	DefaultSlop      int      `json:"default_slop" yaml:"defaultSlop"`           // Slop used when a query does not specify one
	MaxSlop          int      `json:"max_slop" yaml:"maxSlop"`                   // Largest slop a query may request
	StopWords        []string `json:"stop_words" yaml:"stopWords"`               // Dropped at index and query time, positions are kept
}

// Validate checks the settings and returns one message per problem found.
func (settings *IndexSettings) Validate() []string {
	var conflicts []string

	if strings.TrimSpace(settings.Name) == "" {
		conflicts = append(conflicts, "Index name cannot be empty or whitespace-only")
	}
	if len(settings.SearchableFields) == 0 {
		conflicts = append(conflicts, "At least one searchable field is required")
	}

	conflicts = append(conflicts, checkDuplicates("searchable_fields", settings.SearchableFields)...)
	conflicts = append(conflicts, checkDuplicates("stop_words", settings.StopWords)...)

	for _, field := range settings.SearchableFields {
		if strings.TrimSpace(field) == "" {
			conflicts = append(conflicts, "Field name cannot be empty or whitespace-only")
		}
	}

	if settings.DefaultSlop < 0 {
		conflicts = append(conflicts, "default_slop cannot be negative")
	}
	if settings.MaxSlop < 0 {
		conflicts = append(conflicts, "max_slop cannot be negative")
	}
	if settings.MaxSlop >= 0 && settings.DefaultSlop > settings.MaxSlop {
		conflicts = append(conflicts, fmt.Sprintf("default_slop (%d) cannot exceed max_slop (%d)", settings.DefaultSlop, settings.MaxSlop))
	}

	return conflicts
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate value '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}

// ApplyDefaults applies default values to the index settings
func (settings *IndexSettings) ApplyDefaults() {
	if settings.MaxSlop == 0 {
		settings.MaxSlop = DefaultMaxSlop
	}

	// Initialize empty slices if nil to prevent nil pointer issues
	if settings.SearchableFields == nil {
		settings.SearchableFields = []string{}
	}
	if settings.StopWords == nil {
		settings.StopWords = []string{}
	}
}

// FieldWeight returns the weight of a searchable field: 1 for the first field,
// decreasing with priority, 0 for fields that are not searchable.
func (settings *IndexSettings) FieldWeight(field string) float64 {
	for i, f := range settings.SearchableFields {
		if f == field {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// IsSearchable reports whether field is one of the searchable fields.
func (settings *IndexSettings) IsSearchable(field string) bool {
	return settings.FieldWeight(field) > 0
}

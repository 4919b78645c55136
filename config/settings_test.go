package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		settings       IndexSettings
		expectedErrors int
		description    string
	}{
		{
			name: "valid settings",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{"title", "content"},
				DefaultSlop:      1,
				MaxSlop:          5,
			},
			expectedErrors: 0,
			description:    "A named index with fields and a slop range should validate",
		},
		{
			name: "missing name and fields",
			settings: IndexSettings{
				MaxSlop: 5,
			},
			expectedErrors: 2,
			description:    "Both the name and at least one searchable field are required",
		},
		{
			name: "duplicate fields and stop words",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{"title", "title"},
				StopWords:        []string{"the", "the"},
				MaxSlop:          5,
			},
			expectedErrors: 2,
			description:    "Duplicates are reported per list",
		},
		{
			name: "blank field name",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{" "},
				MaxSlop:          5,
			},
			expectedErrors: 1,
			description:    "Whitespace-only field names are rejected",
		},
		{
			name: "negative default slop",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{"title"},
				DefaultSlop:      -1,
				MaxSlop:          5,
			},
			expectedErrors: 1,
			description:    "Slop budgets cannot be negative",
		},
		{
			name: "default slop above max",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{"title"},
				DefaultSlop:      6,
				MaxSlop:          5,
			},
			expectedErrors: 1,
			description:    "The default slop must fit under the cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.settings.Validate()
			if len(errors) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d. Errors: %v. Description: %s",
					tt.expectedErrors, len(errors), errors, tt.description)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	settings := IndexSettings{Name: "defaults"}
	settings.ApplyDefaults()

	if settings.MaxSlop != DefaultMaxSlop {
		t.Errorf("Expected MaxSlop %d, got %d", DefaultMaxSlop, settings.MaxSlop)
	}
	if settings.SearchableFields == nil || settings.StopWords == nil {
		t.Error("Expected nil slices to be initialized")
	}

	explicit := IndexSettings{Name: "explicit", MaxSlop: 3}
	explicit.ApplyDefaults()
	if explicit.MaxSlop != 3 {
		t.Errorf("Expected explicit MaxSlop to be kept, got %d", explicit.MaxSlop)
	}
}

func TestFieldWeight(t *testing.T) {
	settings := IndexSettings{SearchableFields: []string{"title", "body", "tags"}}

	if w := settings.FieldWeight("title"); w != 1.0 {
		t.Errorf("Expected weight 1 for first field, got %f", w)
	}
	if w := settings.FieldWeight("body"); w != 0.5 {
		t.Errorf("Expected weight 0.5 for second field, got %f", w)
	}
	if w := settings.FieldWeight("missing"); w != 0 {
		t.Errorf("Expected weight 0 for unknown field, got %f", w)
	}
	if !settings.IsSearchable("tags") || settings.IsSearchable("missing") {
		t.Error("IsSearchable disagrees with SearchableFields")
	}
}

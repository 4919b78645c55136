package search

import "github.com/gcbaptista/go-phrase-engine/services"

// fieldHit is a document that contains the phrase in one field.
type fieldHit struct {
	docID uint32
	match services.FieldMatch
}

// candidateHit represents a document candidate during result merging
type candidateHit struct {
	docID        uint32
	score        float64
	fieldMatches map[string]services.FieldMatch
}

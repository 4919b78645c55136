package testing

import (
	"sort"

	"github.com/gcbaptista/go-phrase-engine/internal/phrase"
)

// MockPostings is a list-backed phrase.PositionPostings. It holds every
// document's positions up front and starts positioned on its lowest document.
type MockPostings struct {
	docs      []phrase.DocID
	positions map[phrase.DocID][]phrase.Position
	docIdx    int
	posIdx    int
}

// NewMockPostings creates postings from a document -> positions map.
// Positions must be ascending per document.
func NewMockPostings(postings map[phrase.DocID][]phrase.Position) *MockPostings {
	docs := make([]phrase.DocID, 0, len(postings))
	for doc := range postings {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })
	return &MockPostings{docs: docs, positions: postings}
}

// Single is shorthand for postings of one document.
func Single(doc phrase.DocID, positions ...phrase.Position) *MockPostings {
	return NewMockPostings(map[phrase.DocID][]phrase.Position{doc: positions})
}

// DocID returns the current document, or the max uint32 when exhausted.
func (m *MockPostings) DocID() phrase.DocID {
	if m.docIdx >= len(m.docs) {
		return ^phrase.DocID(0)
	}
	return m.docs[m.docIdx]
}

// Position returns the position in hand.
func (m *MockPostings) Position() phrase.Position {
	current := m.current()
	if m.posIdx >= len(current) {
		return phrase.NoPosition
	}
	return current[m.posIdx]
}

// NextPosition advances within the current document.
func (m *MockPostings) NextPosition() phrase.Position {
	if m.posIdx < len(m.current()) {
		m.posIdx++
	}
	return m.Position()
}

// Advance seeks to the first document >= target and reports whether one exists.
func (m *MockPostings) Advance(target phrase.DocID) bool {
	for m.docIdx < len(m.docs) && m.docs[m.docIdx] < target {
		m.docIdx++
		m.posIdx = 0
	}
	return m.docIdx < len(m.docs)
}

func (m *MockPostings) current() []phrase.Position {
	if m.docIdx >= len(m.docs) {
		return nil
	}
	return m.positions[m.docs[m.docIdx]]
}

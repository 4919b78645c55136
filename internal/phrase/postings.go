// Package phrase matches query phrases against per-term position postings of a
// single document.
//
// A phrase is a list of Slots, one per query term, each pairing a position
// postings source with the term's offset inside the phrase. A Matcher is built
// once per phrase and reused across candidate documents: the caller positions
// every source on a document, calls Reset, then drains NextMatch to count
// occurrences.
//
//	m, err := phrase.NewOrderedSloppyMatcher(slots, 2)
//	if err != nil { ... }
//	for doc := range candidates {
//	    // seek every slot's postings to doc first
//	    if err := m.Reset(doc); err != nil { ... }
//	    freq := 0
//	    for m.NextMatch() {
//	        freq++
//	    }
//	}
//
// Matchers are not safe for concurrent use. Run one matcher per worker.
package phrase

// DocID identifies a document inside an index.
type DocID uint32

// Position is the ordinal of a token inside a document field.
type Position int

// NoPosition is returned by PositionPostings when no positions remain for the
// current document.
const NoPosition Position = -1

// PositionPostings is a forward-only stream of the positions of one term inside
// the document it is currently positioned on. Seeking between documents is the
// owner's responsibility; matchers only read positions.
type PositionPostings interface {
	// DocID returns the document the source is positioned on.
	DocID() DocID
	// Position returns the position in hand, or NoPosition.
	Position() Position
	// NextPosition advances to the next position and returns it, or NoPosition
	// once the document is exhausted.
	NextPosition() Position
}

// Slot pairs a term's postings with its offset inside the query phrase.
// Offsets are relative to an arbitrary base; only their differences matter.
type Slot struct {
	Postings PositionPostings
	Offset   int
}

// Matcher enumerates phrase occurrences within one document at a time.
type Matcher interface {
	// Reset starts a new session on doc. Every slot must already be positioned
	// on doc.
	Reset(doc DocID) error
	// NextMatch reports the next occurrence, or false once the session is
	// exhausted.
	NextMatch() bool
	// Width returns the displacement of the last reported match.
	Width() int
}

// NewMatcher returns an ExactMatcher for a zero slop and an
// OrderedSloppyMatcher otherwise.
func NewMatcher(slots []Slot, slop int) (Matcher, error) {
	if slop == 0 {
		return NewExactMatcher(slots)
	}
	return NewOrderedSloppyMatcher(slots, slop)
}

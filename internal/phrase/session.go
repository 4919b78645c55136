package phrase

import (
	"fmt"

	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
)

// session holds the per-document cursor state shared by the matchers.
type session struct {
	slots     []Slot
	positions []Position // in-hand position per slot
	doc       DocID
	active    bool // a Reset succeeded and no Reset failed since
	exhausted bool
}

func newSession(slots []Slot) (session, error) {
	if len(slots) == 0 {
		return session{}, internalErrors.ErrEmptyPhrase
	}
	for i, s := range slots {
		if s.Postings == nil {
			return session{}, internalErrors.NewValidationError(fmt.Sprintf("slots[%d]", i), "postings source is nil")
		}
		if i > 0 && s.Offset < slots[i-1].Offset {
			return session{}, fmt.Errorf("%w: slot %d has offset %d after offset %d",
				internalErrors.ErrUnorderedOffsets, i, s.Offset, slots[i-1].Offset)
		}
	}
	owned := make([]Slot, len(slots))
	copy(owned, slots)
	return session{
		slots:     owned,
		positions: make([]Position, len(slots)),
	}, nil
}

// reset loads the first position of every slot for doc.
func (s *session) reset(doc DocID) error {
	s.active = false
	for i, slot := range s.slots {
		if got := slot.Postings.DocID(); got != doc {
			return internalErrors.NewDocIDMismatchError(i, uint32(doc), uint32(got))
		}
	}

	s.doc = doc
	s.exhausted = false
	for i, slot := range s.slots {
		s.positions[i] = slot.Postings.Position()
		if s.positions[i] == NoPosition {
			s.exhausted = true
		}
	}
	s.active = true
	return nil
}

func (s *session) mustBeActive() {
	if !s.active {
		panic(internalErrors.ErrNoSession)
	}
}

// advanceAnchor moves slot 0 to its next position, ending the session when it
// has none.
func (s *session) advanceAnchor() {
	s.positions[0] = s.slots[0].Postings.NextPosition()
	if s.positions[0] == NoPosition {
		s.exhausted = true
	}
}

// advanceTo moves slot i forward until its position is at least target.
// It reports false, and ends the session, when the slot runs out.
func (s *session) advanceTo(i int, target Position) bool {
	for s.positions[i] < target {
		s.positions[i] = s.slots[i].Postings.NextPosition()
		if s.positions[i] == NoPosition {
			s.exhausted = true
			return false
		}
	}
	return true
}

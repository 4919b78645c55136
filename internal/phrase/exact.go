package phrase

// ExactMatcher finds occurrences where every term sits exactly at the anchor
// position plus its offset difference. Slots sharing an offset must share a
// position, which is how synonyms stacked on one position are matched.
type ExactMatcher struct {
	session
}

// NewExactMatcher builds a matcher over slots sorted by offset.
func NewExactMatcher(slots []Slot) (*ExactMatcher, error) {
	s, err := newSession(slots)
	if err != nil {
		return nil, err
	}
	return &ExactMatcher{session: s}, nil
}

// Reset starts a session on doc.
func (m *ExactMatcher) Reset(doc DocID) error {
	return m.reset(doc)
}

// NextMatch reports whether another exact occurrence exists and consumes it.
// It panics with ErrNoSession when called without a successful Reset.
func (m *ExactMatcher) NextMatch() bool {
	m.mustBeActive()

	for !m.exhausted {
		matched := true
		anchor := m.positions[0]
		for i := 1; i < len(m.slots); i++ {
			target := anchor + Position(m.slots[i].Offset-m.slots[0].Offset)
			if !m.advanceTo(i, target) {
				return false
			}
			if m.positions[i] != target {
				matched = false
				break
			}
		}
		m.advanceAnchor()
		if matched {
			return true
		}
	}
	return false
}

// Width is always zero for exact matches.
func (m *ExactMatcher) Width() int {
	return 0
}

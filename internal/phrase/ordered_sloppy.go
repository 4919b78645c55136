package phrase

import (
	internalErrors "github.com/gcbaptista/go-phrase-engine/internal/errors"
)

// OrderedSloppyMatcher finds occurrences where the phrase terms appear in query
// order and the summed displacement from the exact phrase spacing stays within
// the slop budget.
//
// Displacement is measured step by step: each term is expected at the previous
// term's actual position plus the offset difference between the two terms, so
// gaps compound along the phrase instead of being measured from the first term.
//
// Every anchor position (a position of the first term) is tried once. For each
// anchor the matcher considers every in-budget position of the later terms and
// reports the alignment with the smallest displacement.
type OrderedSloppyMatcher struct {
	session
	slop  int
	width int

	// window holds, per slot, the positions already read from the postings
	// that an alignment with the current or a later anchor could still use.
	window [][]Position
	cur    []candidate
	next   []candidate
}

// candidate is a position of one slot with the smallest displacement of any
// ordered alignment from the anchor up to it.
type candidate struct {
	pos   Position
	width int
}

// NewOrderedSloppyMatcher builds a matcher over slots sorted by offset.
func NewOrderedSloppyMatcher(slots []Slot, slop int) (*OrderedSloppyMatcher, error) {
	if slop < 0 {
		return nil, internalErrors.ErrInvalidSlop
	}
	s, err := newSession(slots)
	if err != nil {
		return nil, err
	}
	return &OrderedSloppyMatcher{
		session: s,
		slop:    slop,
		window:  make([][]Position, len(slots)),
	}, nil
}

// Reset starts a session on doc. It fails with a *DocIDMismatchError if any slot
// is positioned elsewhere; the matcher then has no session until the next
// successful Reset.
func (m *OrderedSloppyMatcher) Reset(doc DocID) error {
	m.width = 0
	for i := range m.window {
		m.window[i] = m.window[i][:0]
	}
	return m.reset(doc)
}

// NextMatch reports whether another occurrence exists and consumes it.
// It panics with ErrNoSession when called without a successful Reset.
func (m *OrderedSloppyMatcher) NextMatch() bool {
	m.mustBeActive()

	for !m.exhausted {
		width, aligned := m.align(m.positions[0])
		if m.exhausted {
			return false
		}
		m.advanceAnchor()
		if aligned {
			m.width = width
			return true
		}
	}
	return false
}

// Width returns the accumulated displacement of the last reported match, or 0
// when the session has reported none.
func (m *OrderedSloppyMatcher) Width() int {
	return m.width
}

// align returns the smallest displacement of an ordered alignment starting at
// anchor, and false when none fits the slop budget.
//
// Slot i of an in-budget alignment lies strictly after the anchor's i-th
// successor and within slop of anchor plus its offset from the first slot.
// Both bounds only grow with the anchor, so positions below the lower bound
// are dropped for good and the postings never need to rewind.
func (m *OrderedSloppyMatcher) align(anchor Position) (int, bool) {
	slop := Position(m.slop)
	cur := append(m.cur[:0], candidate{pos: anchor})

	for i := 1; i < len(m.slots); i++ {
		fromAnchor := Position(m.slots[i].Offset - m.slots[0].Offset)
		positions := m.fill(i, max(anchor+Position(i), anchor+fromAnchor-slop), anchor+fromAnchor+slop)
		if m.exhausted {
			return 0, false
		}

		step := Position(m.slots[i].Offset - m.slots[i-1].Offset)
		next := m.next[:0]
		for _, p := range positions {
			best := -1
			for _, c := range cur {
				if c.pos >= p {
					break
				}
				w := c.width + abs(int(p-(c.pos+step)))
				if w <= m.slop && (best < 0 || w < best) {
					best = w
				}
			}
			if best >= 0 {
				next = append(next, candidate{pos: p, width: best})
			}
		}

		m.cur, m.next = next, cur
		if len(next) == 0 {
			return 0, false
		}
		cur = next
	}

	best := cur[0].width
	for _, c := range cur[1:] {
		best = min(best, c.width)
	}
	return best, true
}

// fill brings slot i's window to the positions in [lo, hi], reading the
// postings no further than hi. It ends the session when the slot has no
// position at or after lo left.
func (m *OrderedSloppyMatcher) fill(i int, lo, hi Position) []Position {
	w := m.window[i]
	drop := 0
	for drop < len(w) && w[drop] < lo {
		drop++
	}
	w = append(w[:0], w[drop:]...)

	for m.positions[i] != NoPosition && m.positions[i] <= hi {
		if m.positions[i] >= lo {
			w = append(w, m.positions[i])
		}
		m.positions[i] = m.slots[i].Postings.NextPosition()
	}
	m.window[i] = w

	if len(w) == 0 && m.positions[i] == NoPosition {
		m.exhausted = true
	}
	return w
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

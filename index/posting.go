package index

import (
	"sort"

	"github.com/gcbaptista/go-phrase-engine/internal/phrase"
)

// PostingEntry records the positions of a term inside one field of one document.
type PostingEntry struct {
	DocID     uint32 // Internal numeric ID for efficiency
	FieldName string // The name of the field where the term was found (e.g., "title", "tags")
	Positions []int  // Ascending token positions of the term in the field
}

// Frequency is the number of occurrences of the term in the field.
func (e PostingEntry) Frequency() int {
	return len(e.Positions)
}

// PostingList is a slice of PostingEntry sorted by DocID, then FieldName.
// There is at most one entry per (DocID, FieldName) pair.
type PostingList []PostingEntry

func entryLess(a, b PostingEntry) bool {
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.FieldName < b.FieldName
}

// Upsert inserts entry at its sorted place, replacing any entry for the same
// document and field, and returns the updated list.
func (pl PostingList) Upsert(entry PostingEntry) PostingList {
	i := sort.Search(len(pl), func(i int) bool { return !entryLess(pl[i], entry) })
	if i < len(pl) && pl[i].DocID == entry.DocID && pl[i].FieldName == entry.FieldName {
		pl[i] = entry
		return pl
	}
	pl = append(pl, PostingEntry{})
	copy(pl[i+1:], pl[i:])
	pl[i] = entry
	return pl
}

// Remove drops the entry for docID and field, if any, and returns the updated list.
func (pl PostingList) Remove(docID uint32, field string) PostingList {
	key := PostingEntry{DocID: docID, FieldName: field}
	i := sort.Search(len(pl), func(i int) bool { return !entryLess(pl[i], key) })
	if i < len(pl) && pl[i].DocID == docID && pl[i].FieldName == field {
		return append(pl[:i], pl[i+1:]...)
	}
	return pl
}

// PostingsCursor walks the entries of one field in a PostingList. It is the
// bridge between stored postings and phrase matching: it implements
// phrase.PositionPostings and adds document seeking.
type PostingsCursor struct {
	list  PostingList
	field string
	idx   int // current entry, len(list) once exhausted
	pos   int // index into the current entry's Positions
}

// NewPostingsCursor returns a cursor positioned on the lowest document that has
// an entry for field.
func NewPostingsCursor(list PostingList, field string) *PostingsCursor {
	c := &PostingsCursor{list: list, field: field}
	c.skipToField()
	return c
}

func (c *PostingsCursor) skipToField() {
	for c.idx < len(c.list) && c.list[c.idx].FieldName != c.field {
		c.idx++
	}
	c.pos = 0
}

// Advance moves the cursor to the first document >= target that has an entry
// for the cursor's field. It reports false once the list is exhausted. The
// cursor never moves backwards.
func (c *PostingsCursor) Advance(target phrase.DocID) bool {
	if c.idx < len(c.list) && phrase.DocID(c.list[c.idx].DocID) >= target {
		return true
	}
	rest := c.list[c.idx:]
	c.idx += sort.Search(len(rest), func(i int) bool { return phrase.DocID(rest[i].DocID) >= target })
	c.skipToField()
	return c.idx < len(c.list)
}

// DocID returns the current document, or the max DocID once exhausted.
func (c *PostingsCursor) DocID() phrase.DocID {
	if c.idx >= len(c.list) {
		return ^phrase.DocID(0)
	}
	return phrase.DocID(c.list[c.idx].DocID)
}

// Position returns the position in hand, or phrase.NoPosition.
func (c *PostingsCursor) Position() phrase.Position {
	if c.idx >= len(c.list) {
		return phrase.NoPosition
	}
	positions := c.list[c.idx].Positions
	if c.pos >= len(positions) {
		return phrase.NoPosition
	}
	return phrase.Position(positions[c.pos])
}

// NextPosition advances within the current document.
func (c *PostingsCursor) NextPosition() phrase.Position {
	if c.idx < len(c.list) && c.pos < len(c.list[c.idx].Positions) {
		c.pos++
	}
	return c.Position()
}

// Frequency is the number of positions in the current entry.
func (c *PostingsCursor) Frequency() int {
	if c.idx >= len(c.list) {
		return 0
	}
	return c.list[c.idx].Frequency()
}

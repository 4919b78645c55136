package store

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-phrase-engine/model"
)

func TestDocumentStore_Accessors(t *testing.T) {
	ds := NewDocumentStore()
	ds.Docs[0] = model.Document{"documentID": "a", "title": "The quick brown fox"}
	ds.Docs[1] = model.Document{"documentID": "b", "title": []interface{}{"lazy", "dog"}, "count": 3.0}
	ds.ExternalIDtoInternalID["a"] = 0
	ds.ExternalIDtoInternalID["b"] = 1
	ds.NextID = 2

	doc, ok := ds.Get(1)
	require.True(t, ok)
	id, _ := doc.GetDocumentID()
	assert.Equal(t, "b", id)

	_, ok = ds.Get(7)
	assert.False(t, ok)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 4, ds.FieldLength(0, "title"))
	assert.Equal(t, 2, ds.FieldLength(1, "title"))
	assert.Equal(t, 0, ds.FieldLength(1, "count"), "non-text fields have no length")
	assert.Equal(t, 0, ds.FieldLength(9, "title"))
	assert.InDelta(t, 3.0, ds.AverageFieldLength("title"), 1e-9)
}

func TestDocumentStore_GobRoundTrip(t *testing.T) {
	ds := NewDocumentStore()
	ds.Docs[4] = model.Document{"documentID": "x", "tags": []interface{}{"red", "green"}}
	ds.ExternalIDtoInternalID["x"] = 4
	ds.NextID = 5

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ds))

	loaded := &DocumentStore{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(loaded))

	assert.Equal(t, uint32(5), loaded.NextID)
	assert.Equal(t, uint32(4), loaded.ExternalIDtoInternalID["x"])
	assert.Equal(t, []string{"red", "green"}, loaded.Docs[4]["tags"], "string arrays are stored as []string")
	assert.Equal(t, 2, loaded.FieldLength(4, "tags"))
}

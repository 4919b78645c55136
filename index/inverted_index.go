package index

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gcbaptista/go-phrase-engine/config"
)

// InvertedIndex maps a term (token) to the positional postings of every
// document field containing it.
type InvertedIndex struct {
	Mu       sync.RWMutex
	Index    map[string]PostingList
	Settings *config.IndexSettings // Reference to settings for this index
}

// NewInvertedIndex creates an empty index for settings.
func NewInvertedIndex(settings *config.IndexSettings) *InvertedIndex {
	return &InvertedIndex{
		Index:    make(map[string]PostingList),
		Settings: settings,
	}
}

// gobInvertedIndexData is a helper struct for Gob encoding/decoding InvertedIndex data.
// It excludes the mutex.
type gobInvertedIndexData struct {
	Index    map[string]PostingList
	Settings *config.IndexSettings
}

// GobEncode implements the gob.GobEncoder interface for InvertedIndex.
func (ii *InvertedIndex) GobEncode() ([]byte, error) {
	ii.Mu.RLock() // Ensure consistent data during encoding
	defer ii.Mu.RUnlock()

	dataToEncode := gobInvertedIndexData{
		Index:    ii.Index,
		Settings: ii.Settings,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for InvertedIndex.
func (ii *InvertedIndex) GobDecode(data []byte) error {
	decodedData := gobInvertedIndexData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	ii.Mu.Lock() // Ensure exclusive access during decoding
	defer ii.Mu.Unlock()

	ii.Index = decodedData.Index
	ii.Settings = decodedData.Settings

	// Ensure maps are initialized if they were nil after decoding (e.g. from an empty file)
	if ii.Index == nil {
		ii.Index = make(map[string]PostingList)
	}
	return nil
}

// The methods below read the index without locking; callers hold Mu.

// Postings returns the posting list of term, or nil.
func (ii *InvertedIndex) Postings(term string) PostingList {
	return ii.Index[term]
}

// DocSet returns the documents with at least one occurrence of term in field.
func (ii *InvertedIndex) DocSet(term, field string) *roaring.Bitmap {
	bm := roaring.New()
	for _, entry := range ii.Index[term] {
		if entry.FieldName == field {
			bm.Add(entry.DocID)
		}
	}
	return bm
}

// CandidateDocs intersects the DocSets of every term for field. The result
// holds the only documents where all terms co-occur in that field.
func (ii *InvertedIndex) CandidateDocs(terms []string, field string) *roaring.Bitmap {
	if len(terms) == 0 {
		return roaring.New()
	}
	result := ii.DocSet(terms[0], field)
	for _, term := range terms[1:] {
		if result.IsEmpty() {
			break
		}
		result.And(ii.DocSet(term, field))
	}
	return result
}

// DocumentFrequency counts the distinct documents containing term in any field.
func (ii *InvertedIndex) DocumentFrequency(term string) int {
	count := 0
	var last uint32
	for i, entry := range ii.Index[term] {
		// entries are grouped by DocID
		if i == 0 || entry.DocID != last {
			count++
			last = entry.DocID
		}
	}
	return count
}

// Put stores the postings of term for one document field.
func (ii *InvertedIndex) Put(term string, entry PostingEntry) {
	ii.Index[term] = ii.Index[term].Upsert(entry)
}

// Drop removes the postings of term for one document field, deleting the term
// once no document contains it.
func (ii *InvertedIndex) Drop(term string, docID uint32, field string) {
	list, ok := ii.Index[term]
	if !ok {
		return
	}
	list = list.Remove(docID, field)
	if len(list) == 0 {
		delete(ii.Index, term)
		return
	}
	ii.Index[term] = list
}

package search

import (
	"math"
	"testing"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/index"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/store"
)

func newBM25Fixture() *BM25Calculator {
	settings := &config.IndexSettings{
		Name:             "test_bm25",
		SearchableFields: []string{"title", "description"},
	}
	invertedIndex := index.NewInvertedIndex(settings)
	documentStore := store.NewDocumentStore()

	docs := []model.Document{
		{"documentID": "doc1", "title": "The quick brown fox"},            // 4 positions
		{"documentID": "doc2", "title": "The brown dog"},                  // 3 positions
		{"documentID": "doc3", "title": "Quick reference guide to quick"}, // 5 positions
	}
	for i, doc := range docs {
		documentStore.Docs[uint32(i)] = doc
		documentStore.ExternalIDtoInternalID[doc["documentID"].(string)] = uint32(i)
	}
	documentStore.NextID = uint32(len(docs))

	invertedIndex.Put("quick", index.PostingEntry{DocID: 0, FieldName: "title", Positions: []int{1}})
	invertedIndex.Put("quick", index.PostingEntry{DocID: 2, FieldName: "title", Positions: []int{0, 4}})
	invertedIndex.Put("quick", index.PostingEntry{DocID: 2, FieldName: "description", Positions: []int{0}})
	invertedIndex.Put("brown", index.PostingEntry{DocID: 0, FieldName: "title", Positions: []int{2}})
	invertedIndex.Put("brown", index.PostingEntry{DocID: 1, FieldName: "title", Positions: []int{1}})

	return NewBM25Calculator(invertedIndex, documentStore)
}

func TestBM25Calculator_IDF(t *testing.T) {
	calc := newBM25Fixture()

	// "quick" is in 2 of 3 documents; the description entry of doc3 is not a second document
	expected := math.Log(1 + (3-2+0.5)/(2+0.5))
	if got := calc.IDF("quick"); math.Abs(got-expected) > 1e-9 {
		t.Errorf("IDF(quick) = %f, want %f", got, expected)
	}
	if got := calc.IDF("missing"); got != 0 {
		t.Errorf("IDF(missing) = %f, want 0", got)
	}
	if got, want := calc.PhraseIDF([]string{"quick", "brown"}), calc.IDF("quick")+calc.IDF("brown"); got != want {
		t.Errorf("PhraseIDF = %f, want %f", got, want)
	}

	empty := NewBM25Calculator(index.NewInvertedIndex(&config.IndexSettings{}), store.NewDocumentStore())
	if got := empty.IDF("quick"); got != 0 {
		t.Errorf("IDF on an empty store = %f, want 0", got)
	}
}

func TestBM25Calculator_Score(t *testing.T) {
	calc := newBM25Fixture()
	calc.PrepareField("title")
	idf := calc.PhraseIDF([]string{"quick"})

	// Average title length is (4+3+5)/3 = 4, so doc1 has a length ratio of 1
	expected := idf * (1 * (bm25K1 + 1)) / (1 + bm25K1)
	if got := calc.Score(idf, 1, 0, "title"); math.Abs(got-expected) > 1e-9 {
		t.Errorf("Score(doc1) = %f, want %f", got, expected)
	}

	// Higher frequency raises the score, longer fields lower it
	if calc.Score(idf, 2, 0, "title") <= calc.Score(idf, 1, 0, "title") {
		t.Error("Score should increase with phrase frequency")
	}
	if calc.Score(idf, 1, 2, "title") >= calc.Score(idf, 1, 1, "title") {
		t.Error("Score should decrease with field length")
	}
	if got := calc.Score(idf, 0, 0, "title"); got != 0 {
		t.Errorf("Score with zero frequency = %f, want 0", got)
	}
}

func TestSloppyFrequency(t *testing.T) {
	tests := []struct {
		width    int
		expected float64
	}{
		{0, 1.0},
		{1, 0.5},
		{3, 0.25},
	}
	for _, tt := range tests {
		if got := SloppyFrequency(tt.width); got != tt.expected {
			t.Errorf("SloppyFrequency(%d) = %f, want %f", tt.width, got, tt.expected)
		}
	}
}

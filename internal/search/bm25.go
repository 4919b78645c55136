package search

import (
	"math"

	"github.com/gcbaptista/go-phrase-engine/index"
	"github.com/gcbaptista/go-phrase-engine/store"
)

// BM25 parameters
const (
	bm25K1 = 1.2  // Controls term frequency saturation
	bm25B  = 0.75 // Controls how much effect document length has
)

// BM25Calculator handles BM25 score calculations for phrase occurrences.
// It reads the index and store without locking; callers hold their read locks.
type BM25Calculator struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	avgLengths    map[string]float64 // per-field average length, filled lazily
}

// NewBM25Calculator creates a new BM25 calculator
func NewBM25Calculator(invIndex *index.InvertedIndex, docStore *store.DocumentStore) *BM25Calculator {
	return &BM25Calculator{
		invertedIndex: invIndex,
		documentStore: docStore,
		avgLengths:    make(map[string]float64),
	}
}

// IDF calculates the inverse document frequency of a term:
// log(1 + (N - df + 0.5) / (df + 0.5)). It stays positive when a term occurs in
// every document, so a phrase of common words still ranks by frequency.
func (calc *BM25Calculator) IDF(term string) float64 {
	totalDocs := float64(calc.documentStore.Len())
	if totalDocs == 0 {
		return 0.0
	}
	docFreq := float64(calc.invertedIndex.DocumentFrequency(term))
	if docFreq == 0 {
		return 0.0
	}
	return math.Log(1 + (totalDocs-docFreq+0.5)/(docFreq+0.5))
}

// PhraseIDF sums the IDF of every term of the phrase.
func (calc *BM25Calculator) PhraseIDF(terms []string) float64 {
	sum := 0.0
	for _, term := range terms {
		sum += calc.IDF(term)
	}
	return sum
}

// PrepareField computes the average length of field. It must be called before
// concurrent Score calls for that field.
func (calc *BM25Calculator) PrepareField(field string) {
	if _, ok := calc.avgLengths[field]; !ok {
		calc.avgLengths[field] = calc.documentStore.AverageFieldLength(field)
	}
}

// Score calculates BM25 with the phrase frequency as tf and document length
// normalization over the matched field:
// BM25 = IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * (|d| / avgdl)))
func (calc *BM25Calculator) Score(phraseIDF, phraseFreq float64, docID uint32, field string) float64 {
	if phraseFreq <= 0 {
		return 0.0
	}
	avgDocLength := calc.avgLengths[field]
	docLength := float64(calc.documentStore.FieldLength(docID, field))

	lengthRatio := 1.0
	if avgDocLength > 0 {
		lengthRatio = docLength / avgDocLength
	}
	bm25TF := (phraseFreq * (bm25K1 + 1)) / (phraseFreq + bm25K1*(1-bm25B+bm25B*lengthRatio))
	return phraseIDF * bm25TF
}

// SloppyFrequency is the contribution of one occurrence with the given width:
// exact occurrences count 1, looser ones progressively less.
func SloppyFrequency(width int) float64 {
	return 1.0 / float64(1+width)
}

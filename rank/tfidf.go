package rank

import (
	"math"

	"github.com/searchlite/searchlite/document"
)

// TfIdf is the classic term-frequency / inverse-document-frequency ranker:
// sum over query terms of ln(1+tf) * ln(N/df).
type TfIdf struct{}

// NewTfIdf returns a TF-IDF ranker.
func NewTfIdf() *TfIdf {
	return &TfIdf{}
}

// Name implements Ranker.
func (r *TfIdf) Name() string {
	return "tfidf"
}

// Score implements Ranker.
func (r *TfIdf) Score(q Query, doc *document.Document, stats *IndexStats) float64 {
	if stats == nil || stats.TotalDocs == 0 {
		return 0
	}
	text := doc.AllText()
	var score float64
	for _, term := range q.Terms {
		df := stats.DocFrequency[term]
		if df < 1 {
			continue
		}
		tf := termFrequency(text, term)
		if tf == 0 {
			continue
		}
		idf := math.Log(float64(stats.TotalDocs) / float64(df))
		score += math.Log(1+float64(tf)) * idf
	}
	return score
}

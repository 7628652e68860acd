package rank

import (
	"math"

	"github.com/searchlite/searchlite/document"
)

// Default Okapi BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// BM25 is the Okapi BM25 ranker with tunable k1 (term-frequency
// saturation) and b (length normalization).
type BM25 struct {
	k1 float64
	b  float64
}

// NewBM25 returns a BM25 ranker with the default parameters.
func NewBM25() *BM25 {
	return &BM25{k1: DefaultK1, b: DefaultB}
}

// NewBM25WithParams returns a BM25 ranker with explicit parameters.
func NewBM25WithParams(k1, b float64) *BM25 {
	return &BM25{k1: k1, b: b}
}

// Name implements Ranker.
func (r *BM25) Name() string {
	return "bm25"
}

// SetParameters adjusts k1 and b for tuning via the registry.
func (r *BM25) SetParameters(k1, b float64) {
	r.k1 = k1
	r.b = b
}

// Parameters returns the current k1 and b.
func (r *BM25) Parameters() (k1, b float64) {
	return r.k1, r.b
}

// Score implements Ranker.
func (r *BM25) Score(q Query, doc *document.Document, stats *IndexStats) float64 {
	if stats == nil || stats.TotalDocs == 0 {
		return 0
	}
	text := doc.AllText()
	docLen := float64(doc.TermCount)
	if docLen <= 0 {
		docLen = float64(len(text))
	}
	norm := 1.0
	if stats.AvgDocLength > 0 {
		norm = 1 - r.b + r.b*docLen/stats.AvgDocLength
	}
	var score float64
	for _, term := range q.Terms {
		df := stats.DocFrequency[term]
		if df < 1 {
			continue
		}
		tf := float64(termFrequency(text, term))
		if tf == 0 {
			continue
		}
		idf := math.Log((float64(stats.TotalDocs)-float64(df)+0.5)/(float64(df)+0.5) + 1)
		score += idf * tf * (r.k1 + 1) / (tf + r.k1*norm)
	}
	return score
}

// ScoreBatch implements BatchScorer with a straight loop; the engine calls
// it when scoring many candidates against the same query.
func (r *BM25) ScoreBatch(q Query, docs []*document.Document, stats *IndexStats) []float64 {
	scores := make([]float64, len(docs))
	for i, d := range docs {
		scores[i] = r.Score(q, d, stats)
	}
	return scores
}

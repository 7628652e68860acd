// Package rank scores candidate documents against a query. It ships TF-IDF
// and BM25 rankers behind a pluggable interface, a name-keyed registry, and
// a bounded top-K heap for result selection.
package rank

import (
	"strings"

	"github.com/searchlite/searchlite/document"
)

// IndexStats carries the corpus statistics rankers need. DocFrequency is
// populated by the engine for the query's terms before scoring.
type IndexStats struct {
	TotalDocs    int
	AvgDocLength float64
	DocFrequency map[string]int
}

// Query is the flat term list being scored.
type Query struct {
	Terms []string
}

// Ranker scores one document for a query. Scores are non-negative; zero
// means no relevance.
type Ranker interface {
	Score(q Query, doc *document.Document, stats *IndexStats) float64
	Name() string
}

// BatchScorer is an optional Ranker capability for scoring many documents
// in one call.
type BatchScorer interface {
	ScoreBatch(q Query, docs []*document.Document, stats *IndexStats) []float64
}

// termFrequency counts case-insensitive occurrences of term in text.
// The scan is substring-based, matching the scoring contract.
func termFrequency(text, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(term))
}

package searchlite

import (
	"github.com/searchlite/searchlite/cache"
	"github.com/searchlite/searchlite/document"
)

// Document re-exports the document value type.
type Document = document.Document

// SearchResult is one ranked hit. The embedded document is a deep copy;
// callers never hold references into the index.
type SearchResult struct {
	Document    Document `json:"document"`
	Score       float64  `json:"score"`
	Explanation string   `json:"explanation,omitempty"`
	Snippets    []string `json:"snippets,omitempty"`
	// ExpandedTerms maps original query terms to the vocabulary terms
	// fuzzy expansion substituted for them.
	ExpandedTerms map[string]string `json:"expanded_terms,omitempty"`
}

// PaginationInfo describes the page returned by SearchPaginated.
type PaginationInfo struct {
	TotalHits   int  `json:"total_hits"`
	Offset      int  `json:"offset"`
	PageSize    int  `json:"page_size"`
	HasNextPage bool `json:"has_next_page"`
}

// PaginatedSearchResults wraps one result page with pagination metadata.
type PaginatedSearchResults struct {
	Results    []SearchResult `json:"results"`
	Pagination PaginationInfo `json:"pagination"`
}

// IndexStatistics summarizes the index.
type IndexStatistics struct {
	TotalDocuments int     `json:"total_documents"`
	TotalTerms     int     `json:"total_terms"`
	AvgDocLength   float64 `json:"avg_doc_length"`
}

// CacheStatistics re-exports the query-cache counters.
type CacheStatistics = cache.Statistics

// DocumentEntry pairs a document id with its document, for browsing.
type DocumentEntry struct {
	ID       uint64   `json:"id"`
	Document Document `json:"document"`
}

func cloneResults(results []SearchResult) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		cp := r
		cp.Document = r.Document.Clone()
		if r.Snippets != nil {
			cp.Snippets = append([]string(nil), r.Snippets...)
		}
		if r.ExpandedTerms != nil {
			cp.ExpandedTerms = make(map[string]string, len(r.ExpandedTerms))
			for k, v := range r.ExpandedTerms {
				cp.ExpandedTerms[k] = v
			}
		}
		out[i] = cp
	}
	return out
}

package searchlite

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/searchlite/searchlite/cache"
	"github.com/searchlite/searchlite/snippet"
)

// Algorithm selects a bundled ranking algorithm. It predates named rankers
// and is overridden by RankerName when that resolves.
type Algorithm int

const (
	AlgorithmBM25 Algorithm = iota
	AlgorithmTFIDF
)

// SnippetOptions re-exports the snippet configuration.
type SnippetOptions = snippet.Options

// SearchOptions controls a single search call. The zero value works but
// differs from the documented defaults for the boolean toggles; use
// DefaultSearchOptions to start from the standard configuration.
type SearchOptions struct {
	// RankerName selects a registered ranker; empty means the default.
	RankerName string
	// Algorithm is the legacy selector, consulted only when RankerName
	// does not resolve.
	Algorithm Algorithm
	// MaxResults bounds the result list; zero or negative selects 10.
	MaxResults int
	// ExplainScores attaches a per-result explanation string.
	ExplainScores bool
	// UseTopKHeap selects bounded-heap selection instead of full sort.
	UseTopKHeap bool
	// GenerateSnippets attaches highlighted excerpts to each result.
	GenerateSnippets bool
	SnippetOptions   SnippetOptions
	// FuzzyEnabled turns on typo-tolerant term expansion.
	FuzzyEnabled bool
	// MaxEditDistance bounds fuzzy expansion; zero means automatic,
	// based on term length.
	MaxEditDistance int
	// UseCache consults and fills the query-result cache.
	UseCache bool
	// Offset skips leading results (offset pagination).
	Offset int
	// SearchAfterScore/SearchAfterID resume after the last result of the
	// previous page (cursor pagination); both must be set together.
	SearchAfterScore *float64
	SearchAfterID    *uint64
}

// DefaultSearchOptions returns the standard search configuration: ten
// results, heap selection, caching on, everything else off.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults:     10,
		UseTopKHeap:    true,
		UseCache:       true,
		SnippetOptions: snippet.DefaultOptions(),
	}
}

// maxResults resolves the effective result bound.
func (o *SearchOptions) maxResults() int {
	if o.MaxResults <= 0 {
		return 10
	}
	return o.MaxResults
}

// cacheKey builds the cache key for this query/options pair. The
// fingerprint hashes every option that can change results; it deliberately
// excludes UseCache itself and the pagination fields.
func (o *SearchOptions) cacheKey(query string) cache.Key {
	canonical := fmt.Sprintf(
		"ranker=%s|algo=%d|max=%d|explain=%t|heap=%t|snippets=%t|sniplen=%d|snipnum=%d|snipopen=%s|snipclose=%s|fuzzy=%t|maxedit=%d",
		o.RankerName,
		o.Algorithm,
		o.maxResults(),
		o.ExplainScores,
		o.UseTopKHeap,
		o.GenerateSnippets,
		o.SnippetOptions.MaxSnippetLength,
		o.SnippetOptions.NumSnippets,
		o.SnippetOptions.HighlightOpen,
		o.SnippetOptions.HighlightClose,
		o.FuzzyEnabled,
		o.MaxEditDistance,
	)
	sum := sha256.Sum256([]byte(canonical))
	return cache.Key{
		NormalizedQuery: normalizeQuery(query),
		OptionsHash:     binary.LittleEndian.Uint64(sum[:8]),
	}
}

// normalizeQuery lowercases and collapses whitespace.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

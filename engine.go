// Package searchlite is an embeddable full-text search engine: it ingests
// documents with named text fields, maintains an in-memory inverted index
// with skip-pointer acceleration, and answers ranked keyword queries with
// optional fuzzy matching and highlighted snippets. One process, one index,
// optional durable snapshot to a single file.
package searchlite

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/searchlite/searchlite/cache"
	"github.com/searchlite/searchlite/document"
	"github.com/searchlite/searchlite/fuzzy"
	"github.com/searchlite/searchlite/index"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/rank"
	"github.com/searchlite/searchlite/snippet"
	"github.com/searchlite/searchlite/tokenizer"
)

const (
	defaultCacheEntries = 1024
	defaultCacheTTL     = 60 * time.Second
)

// Engine owns the tokenizer, inverted index, ranker registry, fuzzy index,
// snippet extractor, query cache, and document store, and enforces the
// single-writer / many-reader discipline across them. All methods are safe
// for concurrent use.
type Engine struct {
	// mu guards the document store, id counter, inverted index, fuzzy
	// index, and tokenizer configuration. Mutations hold it exclusively;
	// searches and stats hold it shared. The query cache has its own
	// lock.
	mu sync.RWMutex

	tok     *tokenizer.Tokenizer
	idx     *index.InvertedIndex
	rankers *rank.Registry
	fz      *fuzzy.Search
	snip    *snippet.Extractor
	qcache  *cache.Cache[[]SearchResult]

	docs       map[uint64]document.Document
	nextDocID  uint64
	totalTerms int64

	logger *slog.Logger
	mtx    *metrics.Metrics
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger scopes the engine's log output to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics wires Prometheus collectors into the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.mtx = m }
}

// WithCacheConfig sizes the query cache.
func WithCacheConfig(maxEntries int, ttl time.Duration) Option {
	return func(e *Engine) { e.qcache = cache.New[[]SearchResult](maxEntries, ttl) }
}

// WithTokenizer replaces the default tokenizer.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tok = t
		}
	}
}

// New creates an Engine with the default tokenizer, the bundled TF-IDF and
// BM25 rankers (BM25 default), and a 1024-entry / 60 s query cache.
func New(opts ...Option) *Engine {
	e := &Engine{
		tok:       tokenizer.New(),
		idx:       index.New(),
		rankers:   rank.NewRegistry(),
		fz:        fuzzy.New(),
		snip:      snippet.New(),
		qcache:    cache.New[[]SearchResult](defaultCacheEntries, defaultCacheTTL),
		docs:      make(map[uint64]document.Document),
		nextDocID: 1,
		logger:    slog.Default().With("component", "search-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates an Engine configured from an EngineConfig section.
func NewFromConfig(cfg config.EngineConfig, opts ...Option) *Engine {
	base := []Option{}
	if cfg.CacheMaxEntries > 0 {
		base = append(base, WithCacheConfig(cfg.CacheMaxEntries, cfg.CacheTTL))
	}
	e := New(append(base, opts...)...)
	switch cfg.Stemmer {
	case "simple":
		e.tok.SetStemmer(tokenizer.StemmerSimple)
	case "porter":
		e.tok.SetStemmer(tokenizer.StemmerPorter)
	}
	e.tok.SetRemoveStopwords(cfg.RemoveStopwords)
	if cfg.EnableSIMD {
		e.tok.EnableSIMD(true)
	}
	if cfg.DefaultRanker != "" {
		e.rankers.SetDefault(cfg.DefaultRanker)
	}
	return e
}

// GetIndex exposes the inverted index for direct access, e.g. skip-pointer
// maintenance.
func (e *Engine) GetIndex() *index.InvertedIndex {
	return e.idx
}

// GetSnippetExtractor exposes the snippet extractor for direct use.
func (e *Engine) GetSnippetExtractor() *snippet.Extractor {
	return e.snip
}

// GetFuzzySearch exposes the fuzzy matcher for direct use.
func (e *Engine) GetFuzzySearch() *fuzzy.Search {
	return e.fz
}

// GetStats returns index-level statistics.
func (e *Engine) GetStats() IndexStatistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	stats := IndexStatistics{
		TotalDocuments: len(e.docs),
		TotalTerms:     e.idx.TermCount(),
	}
	if len(e.docs) > 0 {
		stats.AvgDocLength = float64(e.totalTerms) / float64(len(e.docs))
	}
	return stats
}

// GetCacheStats returns query-cache counters.
func (e *Engine) GetCacheStats() CacheStatistics {
	return e.qcache.Stats()
}

// GetDocuments returns up to limit documents starting at offset, ordered
// by ascending id. Documents are deep copies.
func (e *Engine) GetDocuments(offset, limit int) []DocumentEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := e.sortedDocIDs()
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(ids) {
		end = len(ids)
	}
	out := make([]DocumentEntry, 0, end-offset)
	for _, id := range ids[offset:end] {
		doc := e.docs[id]
		out = append(out, DocumentEntry{ID: id, Document: doc.Clone()})
	}
	return out
}

// ClearCache drops every cached query result.
func (e *Engine) ClearCache() {
	e.qcache.Clear()
}

// SetCacheConfig resizes the query cache and adjusts its TTL.
func (e *Engine) SetCacheConfig(maxEntries int, ttl time.Duration) {
	e.qcache.SetMaxEntries(maxEntries)
	e.qcache.SetTTL(ttl)
}

// avgDocLengthLocked computes the mean analyzed-term count per document.
// Caller must hold mu.
func (e *Engine) avgDocLengthLocked() float64 {
	if len(e.docs) == 0 {
		return 0
	}
	return float64(e.totalTerms) / float64(len(e.docs))
}

func (e *Engine) sortedDocIDs() []uint64 {
	ids := make([]uint64, 0, len(e.docs))
	for id := range e.docs {
		ids = append(ids, id)
	}
	sortUint64s(ids)
	return ids
}

func sortUint64s(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

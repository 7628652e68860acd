package searchlite

import (
	"fmt"
	"sort"
	"time"

	"github.com/searchlite/searchlite/document"
	"github.com/searchlite/searchlite/query"
	"github.com/searchlite/searchlite/rank"
)

const (
	selectionTopKHeap = "top_k_heap"
	selectionFullSort = "full_sort"

	maxFuzzyCandidates = 5
)

// rankedQuery is the outcome of term extraction, fuzzy expansion, and
// scoring, before results are decorated for the caller.
type rankedQuery struct {
	terms      []string
	expansions map[string]string
	ranked     []rank.ScoredDoc
	candidates int
	rankerName string
	selection  string
}

// Search runs a ranked keyword query. Malformed queries never fail; they
// degrade to a flat term scan. Results are deep copies and safe to retain.
func (e *Engine) Search(queryStr string, opts SearchOptions) []SearchResult {
	start := time.Now()

	key := opts.cacheKey(queryStr)
	if opts.UseCache {
		if cached, ok := e.qcache.Get(key); ok {
			if e.mtx != nil {
				e.mtx.CacheHitsTotal.Inc()
			}
			return cloneResults(cached)
		}
		if e.mtx != nil {
			e.mtx.CacheMissesTotal.Inc()
		}
	}

	e.mu.RLock()
	rq := e.rankLocked(queryStr, opts, true)
	results := e.decorateLocked(rq, opts)
	e.mu.RUnlock()

	if opts.UseCache {
		e.qcache.Put(key, cloneResults(results))
	}
	e.observeSearch(start, rq, results)
	return results
}

// SearchWithRanker is a convenience overload: run query with the named
// ranker and result bound, default options otherwise.
func (e *Engine) SearchWithRanker(queryStr, rankerName string, maxResults int) []SearchResult {
	opts := DefaultSearchOptions()
	opts.RankerName = rankerName
	if maxResults > 0 {
		opts.MaxResults = maxResults
	}
	return e.Search(queryStr, opts)
}

// SearchPaginated runs a query and returns one page of results plus
// pagination metadata. With SearchAfterScore/SearchAfterID set it resumes
// after that cursor; otherwise Offset slices the ranked list. Paginated
// searches bypass the query cache: the cache fingerprint deliberately
// excludes pagination state, so caching here would collide pages.
func (e *Engine) SearchPaginated(queryStr string, opts SearchOptions) PaginatedSearchResults {
	start := time.Now()
	pageSize := opts.maxResults()

	e.mu.RLock()
	rq := e.rankLocked(queryStr, opts, false)

	ranked := rq.ranked
	useCursor := opts.SearchAfterScore != nil && opts.SearchAfterID != nil
	offset := 0
	hasNext := false
	if useCursor {
		afterScore, afterID := *opts.SearchAfterScore, *opts.SearchAfterID
		filtered := make([]rank.ScoredDoc, 0, len(ranked))
		for _, sd := range ranked {
			if sd.Score < afterScore || (sd.Score == afterScore && sd.DocID > afterID) {
				filtered = append(filtered, sd)
			}
		}
		ranked = filtered
		hasNext = len(ranked) > pageSize
	} else {
		offset = opts.Offset
		if offset < 0 {
			offset = 0
		}
		if offset > len(ranked) {
			offset = len(ranked)
		}
		ranked = ranked[offset:]
		hasNext = offset+pageSize < rq.candidates
	}
	if len(ranked) > pageSize {
		ranked = ranked[:pageSize]
	}
	rq.ranked = ranked
	results := e.decorateLocked(rq, opts)
	e.mu.RUnlock()

	e.observeSearch(start, rq, results)
	return PaginatedSearchResults{
		Results: results,
		Pagination: PaginationInfo{
			TotalHits:   rq.candidates,
			Offset:      offset,
			PageSize:    len(results),
			HasNextPage: hasNext,
		},
	}
}

// rankLocked extracts terms, expands them fuzzily when asked, gathers the
// candidate set from the posting lists, scores it, and selects the winners.
// Caller must hold mu shared. When bounded is false the full ranked list is
// produced by sort, regardless of the heap option.
func (e *Engine) rankLocked(queryStr string, opts SearchOptions, bounded bool) rankedQuery {
	rq := rankedQuery{selection: selectionFullSort}

	extracted := query.ExtractTerms(queryStr)
	if len(extracted) == 0 {
		return rq
	}
	terms := append([]string(nil), extracted...)

	if opts.FuzzyEnabled {
		rq.expansions = e.expandTermsLocked(terms, opts.MaxEditDistance)
	}
	rq.terms = terms

	stats := &rank.IndexStats{
		TotalDocs:    len(e.docs),
		AvgDocLength: e.avgDocLengthLocked(),
		DocFrequency: make(map[string]int, len(terms)),
	}
	candidateSet := make(map[uint64]struct{})
	for _, term := range terms {
		if _, done := stats.DocFrequency[term]; done {
			continue
		}
		postings := e.idx.GetPostings(term)
		stats.DocFrequency[term] = len(postings)
		for _, p := range postings {
			candidateSet[p.DocID] = struct{}{}
		}
	}
	rq.candidates = len(candidateSet)
	if len(candidateSet) == 0 {
		return rq
	}

	ranker := e.selectRanker(opts)
	rq.rankerName = ranker.Name()

	ids := make([]uint64, 0, len(candidateSet))
	for id := range candidateSet {
		ids = append(ids, id)
	}
	sortUint64s(ids)

	q := rank.Query{Terms: terms}
	scored := make([]rank.ScoredDoc, 0, len(ids))
	if batch, ok := ranker.(rank.BatchScorer); ok {
		docs := make([]*document.Document, len(ids))
		for i, id := range ids {
			doc := e.docs[id]
			docs[i] = &doc
		}
		for i, score := range batch.ScoreBatch(q, docs, stats) {
			if score > 0 {
				scored = append(scored, rank.ScoredDoc{DocID: ids[i], Score: score})
			}
		}
	} else {
		for _, id := range ids {
			doc := e.docs[id]
			if score := ranker.Score(q, &doc, stats); score > 0 {
				scored = append(scored, rank.ScoredDoc{DocID: id, Score: score})
			}
		}
	}

	if bounded && opts.UseTopKHeap {
		topk := rank.NewTopK(opts.maxResults())
		for _, sd := range scored {
			topk.Push(sd)
		}
		rq.ranked = topk.Sorted()
		rq.selection = selectionTopKHeap
	} else {
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].Score != scored[j].Score {
				return scored[i].Score > scored[j].Score
			}
			return scored[i].DocID < scored[j].DocID
		})
		if bounded && len(scored) > opts.maxResults() {
			scored = scored[:opts.maxResults()]
		}
		rq.ranked = scored
	}

	// Fuzzy substitutions cost confidence: scale every score down by 10%
	// per expansion, floored at half.
	if n := len(rq.expansions); n > 0 {
		penalty := 1 - 0.1*float64(n)
		if penalty < 0.5 {
			penalty = 0.5
		}
		for i := range rq.ranked {
			rq.ranked[i].Score *= penalty
		}
	}
	return rq
}

// expandTermsLocked substitutes unknown terms in place: an exact vocabulary
// hit is kept, otherwise the shortest prefix match wins, otherwise the best
// fuzzy candidate within the edit-distance budget. Terms with no usable
// substitute stay unchanged and simply match nothing. Returns the map of
// applied substitutions.
func (e *Engine) expandTermsLocked(terms []string, maxEditDistance int) map[string]string {
	if !e.fz.IsBuilt() {
		e.fz.BuildNgramIndex(e.idx.Vocabulary())
	}
	var expansions map[string]string
	var vocab map[string]struct{}
	for i, term := range terms {
		if term == "" || e.idx.DocumentFrequency(term) > 0 {
			continue
		}
		if vocab == nil {
			vocab = e.idx.Vocabulary()
		}
		if sub, ok := shortestPrefixMatch(vocab, term); ok {
			terms[i] = sub
			if expansions == nil {
				expansions = make(map[string]string)
			}
			expansions[term] = sub
			continue
		}
		matches := e.fz.FindMatches(term, maxEditDistance, maxFuzzyCandidates)
		if len(matches) > 0 {
			terms[i] = matches[0].MatchedTerm
			if expansions == nil {
				expansions = make(map[string]string)
			}
			expansions[term] = matches[0].MatchedTerm
		}
	}
	if e.mtx != nil && len(expansions) > 0 {
		e.mtx.FuzzyExpansionsTotal.Add(float64(len(expansions)))
	}
	return expansions
}

// shortestPrefixMatch returns the shortest vocabulary term with the given
// prefix, breaking length ties lexicographically.
func shortestPrefixMatch(vocab map[string]struct{}, prefix string) (string, bool) {
	best := ""
	for term := range vocab {
		if len(term) <= len(prefix) || term[:len(prefix)] != prefix {
			continue
		}
		if best == "" || len(term) < len(best) || (len(term) == len(best) && term < best) {
			best = term
		}
	}
	return best, best != ""
}

// selectRanker resolves the ranker for this call: the named one when
// registered, else the legacy algorithm selector, else the default.
func (e *Engine) selectRanker(opts SearchOptions) rank.Ranker {
	if opts.RankerName != "" {
		if ranker, ok := e.rankers.Lookup(opts.RankerName); ok {
			return ranker
		}
	}
	if opts.Algorithm == AlgorithmTFIDF {
		return e.rankers.Get("tfidf")
	}
	return e.rankers.Get("")
}

// decorateLocked turns selected ScoredDocs into caller-facing results:
// document deep copies, optional explanations and snippets, and the fuzzy
// expansion map. Caller must hold mu shared.
func (e *Engine) decorateLocked(rq rankedQuery, opts SearchOptions) []SearchResult {
	results := make([]SearchResult, 0, len(rq.ranked))
	for _, sd := range rq.ranked {
		doc, ok := e.docs[sd.DocID]
		if !ok {
			continue
		}
		res := SearchResult{
			Document: doc.Clone(),
			Score:    sd.Score,
		}
		if opts.ExplainScores {
			res.Explanation = fmt.Sprintf("ranker=%s score=%.4f selection=%s",
				rq.rankerName, sd.Score, rq.selection)
		}
		if opts.GenerateSnippets {
			res.Snippets = e.snip.GenerateSnippets(res.Document.AllText(), rq.terms, opts.SnippetOptions)
		}
		if len(rq.expansions) > 0 {
			res.ExpandedTerms = make(map[string]string, len(rq.expansions))
			for k, v := range rq.expansions {
				res.ExpandedTerms[k] = v
			}
		}
		results = append(results, res)
	}
	return results
}

func (e *Engine) observeSearch(start time.Time, rq rankedQuery, results []SearchResult) {
	e.logger.Debug("search executed",
		"terms", rq.terms,
		"candidates", rq.candidates,
		"results", len(results),
		"expansions", len(rq.expansions),
		"latency", time.Since(start),
	)
	if e.mtx == nil {
		return
	}
	status := "ok"
	if len(results) == 0 {
		status = "empty"
	}
	e.mtx.SearchQueriesTotal.WithLabelValues(status).Inc()
	e.mtx.SearchLatency.Observe(time.Since(start).Seconds())
	e.mtx.SearchResultsCount.Observe(float64(len(results)))
}

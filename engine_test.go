package searchlite

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlite/searchlite/document"
	"github.com/searchlite/searchlite/rank"
)

func contentDoc(id uint64, text string) Document {
	return Document{ID: id, Fields: map[string]string{"content": text}}
}

func indexCorpus(e *Engine, texts ...string) {
	docs := make([]Document, len(texts))
	for i, text := range texts {
		docs[i] = contentDoc(uint64(i+1), text)
	}
	e.IndexDocuments(docs)
}

func TestBasicIndexAndSearch(t *testing.T) {
	e := New()
	indexCorpus(e,
		"the quick fox",
		"the lazy dog",
		"quick brown dog",
	)

	results := e.Search("quick brown", DefaultSearchOptions())
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(3), results[0].Document.ID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestBM25LengthPreference(t *testing.T) {
	e := New()
	indexCorpus(e,
		"machine learning algorithms",
		"algorithms and data structures",
		"machine learning deep learning neural networks",
	)

	results := e.Search("machine learning", DefaultSearchOptions())
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(1), results[0].Document.ID)
}

func TestIDAssignment(t *testing.T) {
	e := New()

	id1 := e.IndexDocument(Document{Fields: map[string]string{"c": "one"}})
	assert.Equal(t, uint64(1), id1)

	// A caller-supplied id wins and advances the counter past it.
	id42 := e.IndexDocument(contentDoc(42, "forty two"))
	assert.Equal(t, uint64(42), id42)

	idNext := e.IndexDocument(Document{Fields: map[string]string{"c": "next"}})
	assert.Equal(t, uint64(43), idNext)
}

func TestUpdateDocument(t *testing.T) {
	e := New()
	indexCorpus(e, "old content here", "unrelated words")

	require.True(t, e.UpdateDocument(1, contentDoc(0, "fresh content instead")))
	assert.False(t, e.UpdateDocument(99, contentDoc(0, "nope")))

	opts := DefaultSearchOptions()
	assert.Empty(t, e.Search("old", opts))
	results := e.Search("fresh", opts)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].Document.ID)
	assert.Equal(t, "fresh content instead", results[0].Document.Fields["content"])
}

func TestDeleteDocument(t *testing.T) {
	e := New()
	indexCorpus(e, "alpha beta", "alpha gamma")

	require.True(t, e.DeleteDocument(1))
	assert.False(t, e.DeleteDocument(1))

	results := e.Search("alpha", DefaultSearchOptions())
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].Document.ID)

	stats := e.GetStats()
	assert.Equal(t, 1, stats.TotalDocuments)
}

func TestStatsTrackTermCounts(t *testing.T) {
	e := New()
	// Stopwords removed: 2 + 3 analyzed terms.
	indexCorpus(e, "the quick fox", "lazy dog barks")

	stats := e.GetStats()
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.InDelta(t, 2.5, stats.AvgDocLength, 1e-9)
	assert.Greater(t, stats.TotalTerms, 0)

	e.DeleteDocument(1)
	stats = e.GetStats()
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.InDelta(t, 3.0, stats.AvgDocLength, 1e-9)
}

func TestEmptyQueryReturnsEmpty(t *testing.T) {
	e := New()
	indexCorpus(e, "something")
	assert.Empty(t, e.Search("", DefaultSearchOptions()))
	assert.Empty(t, e.Search("   ", DefaultSearchOptions()))
}

func TestSearchUnknownTermsEmpty(t *testing.T) {
	e := New()
	indexCorpus(e, "alpha beta")
	assert.Empty(t, e.Search("zeppelin", DefaultSearchOptions()))
}

func TestHeapAndSortSelectionAgree(t *testing.T) {
	e := New()
	for i := 1; i <= 40; i++ {
		e.IndexDocument(contentDoc(uint64(i),
			fmt.Sprintf("shared term document %d with shared repeated %d times", i, i%7)))
	}

	heapOpts := DefaultSearchOptions()
	heapOpts.MaxResults = 10
	heapOpts.UseCache = false

	sortOpts := heapOpts
	sortOpts.UseTopKHeap = false

	heapResults := e.Search("shared repeated", heapOpts)
	sortResults := e.Search("shared repeated", sortOpts)

	require.Equal(t, len(heapResults), len(sortResults))
	for i := range heapResults {
		assert.Equal(t, heapResults[i].Document.ID, sortResults[i].Document.ID, "rank %d", i)
		assert.InDelta(t, heapResults[i].Score, sortResults[i].Score, 1e-12, "rank %d", i)
	}
}

func TestExplainScores(t *testing.T) {
	e := New()
	indexCorpus(e, "explained document")

	opts := DefaultSearchOptions()
	opts.ExplainScores = true
	results := e.Search("explained", opts)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Explanation, "ranker=bm25")
	assert.Contains(t, results[0].Explanation, "selection=top_k_heap")

	opts.UseTopKHeap = false
	opts.UseCache = false
	results = e.Search("explained", opts)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Explanation, "selection=full_sort")
}

func TestSnippetsAttached(t *testing.T) {
	e := New()
	indexCorpus(e, "the quick brown fox jumps over the lazy dog")

	opts := DefaultSearchOptions()
	opts.GenerateSnippets = true
	results := e.Search("fox", opts)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Snippets)
	assert.Contains(t, results[0].Snippets[0], "<em>fox</em>")
}

func TestFuzzyExpansion(t *testing.T) {
	e := New()
	indexCorpus(e,
		"Machine learning is a subset of AI",
		"The quick brown fox jumps over the lazy dog",
		"Search engine algorithms rank documents",
		"Neural networks power modern computer science",
		"Deep learning and machine learning are related fields",
	)

	fuzzyOpts := DefaultSearchOptions()
	fuzzyOpts.FuzzyEnabled = true
	fuzzyResults := e.Search("machne lerning", fuzzyOpts)
	require.NotEmpty(t, fuzzyResults)
	for _, r := range fuzzyResults {
		assert.Equal(t, "machine", r.ExpandedTerms["machne"])
	}

	// The expansion penalty keeps corrected queries below the same query
	// spelled right.
	exactResults := e.Search("machine learning", DefaultSearchOptions())
	require.NotEmpty(t, exactResults)
	assert.Equal(t, exactResults[0].Document.ID, fuzzyResults[0].Document.ID)
	assert.Less(t, fuzzyResults[0].Score, exactResults[0].Score)
}

func TestFuzzyPrefixSubstitution(t *testing.T) {
	e := New()
	indexCorpus(e, "searching searches searched")

	opts := DefaultSearchOptions()
	opts.FuzzyEnabled = true
	results := e.Search("searchi", opts)
	require.NotEmpty(t, results)
	assert.Equal(t, "searching", results[0].ExpandedTerms["searchi"])
}

func TestFuzzyDisabledNoExpansion(t *testing.T) {
	e := New()
	indexCorpus(e, "machine learning")
	assert.Empty(t, e.Search("machne", DefaultSearchOptions()))
}

func TestCacheHitAndInvalidation(t *testing.T) {
	e := New()
	indexCorpus(e, "cached content")

	opts := DefaultSearchOptions()
	e.Search("cached", opts)
	before := e.GetCacheStats()

	e.Search("cached", opts)
	after := e.GetCacheStats()
	assert.Equal(t, before.HitCount+1, after.HitCount)
	assert.Equal(t, 1, after.CurrentSize)

	// Any write clears the cache.
	e.IndexDocument(contentDoc(0, "anything at all"))
	assert.Equal(t, 0, e.GetCacheStats().CurrentSize)

	e.Search("cached", opts)
	final := e.GetCacheStats()
	assert.Equal(t, after.MissCount+1, final.MissCount)
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	e := New()
	indexCorpus(e, "keyed content")

	a := DefaultSearchOptions()
	e.Search("keyed", a)

	b := a
	b.MaxResults = 5
	e.Search("keyed", b)
	assert.Equal(t, 2, e.GetCacheStats().CurrentSize, "different options must cache separately")

	// Query normalization folds case and whitespace into one entry.
	e.Search("  KEYED  ", a)
	assert.Equal(t, uint64(1), e.GetCacheStats().HitCount)
}

func TestCachedResultsAreCopies(t *testing.T) {
	e := New()
	indexCorpus(e, "mutable result")

	opts := DefaultSearchOptions()
	first := e.Search("mutable", opts)
	require.NotEmpty(t, first)
	first[0].Document.Fields["content"] = "tampered"

	second := e.Search("mutable", opts)
	assert.Equal(t, "mutable result", second[0].Document.Fields["content"])
}

func TestSetCacheConfigAndClearCache(t *testing.T) {
	e := New()
	indexCorpus(e, "resize me")

	opts := DefaultSearchOptions()
	e.Search("resize", opts)
	require.Equal(t, 1, e.GetCacheStats().CurrentSize)

	e.ClearCache()
	assert.Equal(t, 0, e.GetCacheStats().CurrentSize)

	e.SetCacheConfig(2, time.Minute)
	assert.Equal(t, 2, e.GetCacheStats().MaxSize)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.snap")

	e := New()
	e.IndexDocument(Document{ID: 1, Fields: map[string]string{
		"title": "First Doc", "body": "machine learning algorithms", "lang": "en",
	}})
	e.IndexDocument(Document{ID: 2, Fields: map[string]string{
		"title": "Second Doc", "body": "quick brown fox", "lang": "en",
	}})
	e.IndexDocument(Document{ID: 3, Fields: map[string]string{
		"title": "Third Doc", "body": "machine vision systems", "lang": "de",
	}})

	require.NoError(t, e.SaveSnapshot(path))

	restored := New()
	require.NoError(t, restored.LoadSnapshot(path))

	assert.Equal(t, e.GetStats(), restored.GetStats())

	opts := DefaultSearchOptions()
	want := e.Search("machine", opts)
	got := restored.Search("machine", opts)
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].Document.ID, got[i].Document.ID)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-12)
		assert.Equal(t, want[i].Document.Fields, got[i].Document.Fields)
	}

	// The id counter survives the round trip.
	id := restored.IndexDocument(Document{Fields: map[string]string{"c": "new"}})
	assert.Equal(t, uint64(4), id)
}

func TestLoadSnapshotFailureLeavesEngineIntact(t *testing.T) {
	e := New()
	indexCorpus(e, "precious data")

	err := e.LoadSnapshot(filepath.Join(t.TempDir(), "missing.snap"))
	require.Error(t, err)

	results := e.Search("precious", DefaultSearchOptions())
	assert.Len(t, results, 1)
}

func TestSearchWithRanker(t *testing.T) {
	e := New()
	indexCorpus(e, "ranked content", "other ranked text", "unrelated words")

	results := e.SearchWithRanker("ranked", "tfidf", 1)
	require.Len(t, results, 1)

	// Unknown names fall back to the default ranker.
	results = e.SearchWithRanker("ranked", "bogus", 10)
	assert.NotEmpty(t, results)
}

func TestAlgorithmSelector(t *testing.T) {
	e := New()
	indexCorpus(e, "selector test content", "unrelated words")

	opts := DefaultSearchOptions()
	opts.Algorithm = AlgorithmTFIDF
	opts.ExplainScores = true
	results := e.Search("selector", opts)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Explanation, "ranker=tfidf")
}

type docLengthRanker struct{}

func (docLengthRanker) Name() string { return "doclen" }
func (docLengthRanker) Score(q rank.Query, d *document.Document, s *rank.IndexStats) float64 {
	return float64(d.TermCount)
}

func TestCustomRanker(t *testing.T) {
	e := New()
	indexCorpus(e, "short one", "a much longer document with many more words")

	require.True(t, e.RegisterCustomRanker(docLengthRanker{}))
	assert.False(t, e.RegisterCustomRanker(nil))
	assert.True(t, e.HasRanker("doclen"))
	assert.Contains(t, e.ListAvailableRankers(), "doclen")

	require.True(t, e.SetDefaultRanker("doclen"))
	assert.Equal(t, "doclen", e.GetDefaultRanker())

	results := e.Search("document one", DefaultSearchOptions())
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(2), results[0].Document.ID)

	assert.Nil(t, e.GetRanker("missing"))
	assert.NotNil(t, e.GetRanker("doclen"))
}

func TestGetDocuments(t *testing.T) {
	e := New()
	indexCorpus(e, "one", "two", "three", "four", "five")

	page := e.GetDocuments(1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(2), page[0].ID)
	assert.Equal(t, uint64(3), page[1].ID)

	assert.Empty(t, e.GetDocuments(10, 5))
	assert.Len(t, e.GetDocuments(0, 0), 5, "zero limit returns the remainder")
}

func TestSearchPaginatedOffset(t *testing.T) {
	e := New()
	for i := 1; i <= 25; i++ {
		e.IndexDocument(contentDoc(uint64(i), fmt.Sprintf("common term plus filler%d", i)))
	}

	opts := DefaultSearchOptions()
	opts.MaxResults = 10
	page1 := e.SearchPaginated("common", opts)
	require.Len(t, page1.Results, 10)
	assert.Equal(t, 25, page1.Pagination.TotalHits)
	assert.True(t, page1.Pagination.HasNextPage)

	opts.Offset = 20
	page3 := e.SearchPaginated("common", opts)
	assert.Len(t, page3.Results, 5)
	assert.Equal(t, 20, page3.Pagination.Offset)
	assert.False(t, page3.Pagination.HasNextPage)

	// Pages must not overlap.
	seen := map[uint64]bool{}
	for _, r := range page1.Results {
		seen[r.Document.ID] = true
	}
	for _, r := range page3.Results {
		assert.False(t, seen[r.Document.ID])
	}
}

func TestSearchPaginatedCursor(t *testing.T) {
	e := New()
	for i := 1; i <= 12; i++ {
		e.IndexDocument(contentDoc(uint64(i), "cursor term content"))
	}

	opts := DefaultSearchOptions()
	opts.MaxResults = 5
	page1 := e.SearchPaginated("cursor", opts)
	require.Len(t, page1.Results, 5)
	require.True(t, page1.Pagination.HasNextPage)

	last := page1.Results[len(page1.Results)-1]
	opts.SearchAfterScore = &last.Score
	opts.SearchAfterID = &last.Document.ID
	page2 := e.SearchPaginated("cursor", opts)
	require.Len(t, page2.Results, 5)

	for _, r := range page2.Results {
		assert.Greater(t, r.Document.ID, last.Document.ID,
			"equal scores page by ascending doc id")
	}

	last2 := page2.Results[len(page2.Results)-1]
	opts.SearchAfterScore = &last2.Score
	opts.SearchAfterID = &last2.Document.ID
	page3 := e.SearchPaginated("cursor", opts)
	assert.Len(t, page3.Results, 2)
	assert.False(t, page3.Pagination.HasNextPage)
}

func TestConcurrentSearchAndIndex(t *testing.T) {
	e := New()
	indexCorpus(e, "seed document for concurrent access")

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts := DefaultSearchOptions()
			for {
				select {
				case <-stop:
					return
				default:
					e.Search("concurrent document", opts)
					e.GetStats()
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		e.IndexDocument(contentDoc(0, fmt.Sprintf("concurrent document number %d", i)))
		if i%3 == 0 {
			e.DeleteDocument(uint64(i/3 + 2))
		}
	}
	close(stop)
	wg.Wait()

	stats := e.GetStats()
	assert.Greater(t, stats.TotalDocuments, 0)
}

func TestMalformedQueriesNeverFail(t *testing.T) {
	e := New()
	indexCorpus(e, "robust parser content")

	for _, q := range []string{
		`"unterminated phrase`,
		"(((((",
		"AND OR NOT",
		"field:",
		`~~~"`,
	} {
		assert.NotPanics(t, func() {
			e.Search(q, DefaultSearchOptions())
		}, "query %q", q)
	}
}

package benchmark

import (
	"fmt"
	"testing"

	"github.com/searchlite/searchlite"
)

func preloadEngine(n int) *searchlite.Engine {
	engine := searchlite.New()
	docs := make([]searchlite.Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, searchlite.Document{
			Fields: map[string]string{
				"title": fmt.Sprintf("document %d about search engines", i),
				"body": fmt.Sprintf(
					"full text retrieval with ranked scoring, fuzzy matching, "+
						"and snippet extraction, variant %d", i%50),
			},
		})
	}
	engine.IndexDocuments(docs)
	return engine
}

// BenchmarkIndexDocument measures end-to-end indexing throughput at
// various pre-loaded corpus sizes.
func BenchmarkIndexDocument(b *testing.B) {
	for _, preload := range []int{100, 1000, 5000} {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			engine := preloadEngine(preload)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				engine.IndexDocument(searchlite.Document{
					Fields: map[string]string{"body": "benchmark document body for throughput"},
				})
			}
		})
	}
}

// BenchmarkSearch measures uncached query latency over 10 000 documents.
func BenchmarkSearch(b *testing.B) {
	engine := preloadEngine(10000)
	opts := searchlite.DefaultSearchOptions()
	opts.UseCache = false

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Search("ranked retrieval", opts)
	}
}

// BenchmarkSearchCached measures the cache-hit path.
func BenchmarkSearchCached(b *testing.B) {
	engine := preloadEngine(10000)
	opts := searchlite.DefaultSearchOptions()
	engine.Search("ranked retrieval", opts)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Search("ranked retrieval", opts)
	}
}

// BenchmarkSearchParallel measures concurrent read throughput.
func BenchmarkSearchParallel(b *testing.B) {
	engine := preloadEngine(10000)
	opts := searchlite.DefaultSearchOptions()
	opts.UseCache = false

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = engine.Search("ranked retrieval", opts)
		}
	})
}

// BenchmarkFuzzySearch measures typo-tolerant queries, n-gram index
// included.
func BenchmarkFuzzySearch(b *testing.B) {
	engine := preloadEngine(10000)
	opts := searchlite.DefaultSearchOptions()
	opts.UseCache = false
	opts.FuzzyEnabled = true

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Search("rankd retrieval", opts)
	}
}

// BenchmarkTopKSelection compares heap selection against full sort.
func BenchmarkTopKSelection(b *testing.B) {
	engine := preloadEngine(10000)

	for _, useHeap := range []bool{true, false} {
		name := "full_sort"
		if useHeap {
			name = "top_k_heap"
		}
		b.Run(name, func(b *testing.B) {
			opts := searchlite.DefaultSearchOptions()
			opts.UseCache = false
			opts.UseTopKHeap = useHeap
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = engine.Search("search engines", opts)
			}
		})
	}
}

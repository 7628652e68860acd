package rank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlite/searchlite/document"
)

func doc(id uint64, termCount int, content string) document.Document {
	return document.Document{
		ID:        id,
		TermCount: termCount,
		Fields:    map[string]string{"content": content},
	}
}

func stats(totalDocs int, avgLen float64, df map[string]int) *IndexStats {
	return &IndexStats{TotalDocs: totalDocs, AvgDocLength: avgLen, DocFrequency: df}
}

func TestTfIdfScore(t *testing.T) {
	r := NewTfIdf()
	d := doc(1, 4, "machine learning beats manual machine tuning")
	s := stats(10, 5, map[string]int{"machine": 2, "learning": 1})

	got := r.Score(Query{Terms: []string{"machine", "learning"}}, &d, s)

	// machine: tf=2, df=2 → ln(3)·ln(5); learning: tf=1, df=1 → ln(2)·ln(10)
	want := math.Log(3)*math.Log(5) + math.Log(2)*math.Log(10)
	assert.InDelta(t, want, got, 1e-9)
}

func TestTfIdfSkipsUnknownAndAbsentTerms(t *testing.T) {
	r := NewTfIdf()
	d := doc(1, 2, "plain text")
	s := stats(10, 2, map[string]int{"ghost": 0, "absent": 3})

	got := r.Score(Query{Terms: []string{"ghost", "absent"}}, &d, s)
	assert.Zero(t, got)
}

func TestTfIdfCaseInsensitive(t *testing.T) {
	r := NewTfIdf()
	d := doc(1, 2, "Machine MACHINE machine")
	s := stats(4, 3, map[string]int{"machine": 1})
	got := r.Score(Query{Terms: []string{"machine"}}, &d, s)
	want := math.Log(4) * math.Log(4)
	assert.InDelta(t, want, got, 1e-9)
}

func TestBM25Score(t *testing.T) {
	r := NewBM25()
	d := doc(1, 4, "machine learning machine")
	s := stats(10, 4, map[string]int{"machine": 3})

	got := r.Score(Query{Terms: []string{"machine"}}, &d, s)

	// tf=2, df=3, L=4, avg=4 → norm=1
	idf := math.Log((10-3+0.5)/(3+0.5) + 1)
	want := idf * 2 * 2.5 / (2 + 1.5)
	assert.InDelta(t, want, got, 1e-9)
}

func TestBM25PrefersShorterDocAtEqualTf(t *testing.T) {
	r := NewBM25()
	short := doc(1, 3, "machine learning algorithms")
	long := doc(2, 9, "machine learning deep learning neural networks and much more")
	s := stats(3, 6, map[string]int{"machine": 2})
	q := Query{Terms: []string{"machine"}}

	assert.Greater(t, r.Score(q, &short, s), r.Score(q, &long, s))
}

func TestBM25FallsBackToTextLength(t *testing.T) {
	r := NewBM25()
	d := doc(1, 0, "machine") // TermCount unset
	s := stats(2, 7, map[string]int{"machine": 1})
	got := r.Score(Query{Terms: []string{"machine"}}, &d, s)
	assert.Positive(t, got)
}

func TestBM25SetParameters(t *testing.T) {
	r := NewBM25()
	k1, b := r.Parameters()
	assert.Equal(t, DefaultK1, k1)
	assert.Equal(t, DefaultB, b)

	r.SetParameters(2.0, 0.5)
	k1, b = r.Parameters()
	assert.Equal(t, 2.0, k1)
	assert.Equal(t, 0.5, b)
}

func TestBM25ScoreBatchMatchesScore(t *testing.T) {
	r := NewBM25()
	docs := []*document.Document{}
	for i := uint64(1); i <= 5; i++ {
		d := doc(i, int(i)+2, "machine learning content here")
		docs = append(docs, &d)
	}
	s := stats(5, 4.5, map[string]int{"machine": 3, "learning": 2})
	q := Query{Terms: []string{"machine", "learning"}}

	batch := r.ScoreBatch(q, docs, s)
	require.Len(t, batch, len(docs))
	for i, d := range docs {
		assert.InDelta(t, r.Score(q, d, s), batch[i], 1e-12)
	}
}

func TestRegistryDefaults(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, "bm25", reg.Default())
	assert.Equal(t, []string{"bm25", "tfidf"}, reg.List())
	assert.True(t, reg.Has("tfidf"))
	assert.False(t, reg.Has("nope"))
}

func TestRegistryGetFallsBackToDefault(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, "bm25", reg.Get("unknown").Name())
	assert.Equal(t, "tfidf", reg.Get("tfidf").Name())
	assert.Equal(t, "bm25", reg.Get("").Name())
}

type constantRanker struct {
	name  string
	value float64
}

func (c *constantRanker) Name() string { return c.name }
func (c *constantRanker) Score(Query, *document.Document, *IndexStats) float64 {
	return c.value
}

func TestRegistryRegisterReplaceAndDefault(t *testing.T) {
	reg := NewRegistry()

	assert.False(t, reg.Register(nil))
	assert.True(t, reg.Register(&constantRanker{name: "const", value: 1}))
	assert.True(t, reg.Has("const"))

	// Re-registering the same name replaces the ranker.
	assert.True(t, reg.Register(&constantRanker{name: "const", value: 2}))
	d := doc(1, 1, "x")
	assert.Equal(t, 2.0, reg.Get("const").Score(Query{}, &d, nil))

	assert.False(t, reg.SetDefault("missing"))
	assert.Equal(t, "bm25", reg.Default())
	assert.True(t, reg.SetDefault("const"))
	assert.Equal(t, "const", reg.Default())
}

package rank

import "container/heap"

// ScoredDoc pairs a document id with its relevance score.
type ScoredDoc struct {
	DocID uint64  `json:"doc_id"`
	Score float64 `json:"score"`
}

// better reports whether a outranks b: higher score wins, ties go to the
// lower doc id.
func better(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// TopK is a bounded min-heap that retains the K best-scoring documents.
// The worst retained element sits at the top, so each push against a full
// heap is a single compare plus O(log K) on replacement.
type TopK struct {
	capacity int
	h        scoredDocHeap
}

// NewTopK returns a TopK retaining at most k elements. k of zero yields a
// heap that drops everything.
func NewTopK(k int) *TopK {
	return &TopK{capacity: k}
}

// Push offers an element: inserted while below capacity, swapped in when it
// beats the current worst, dropped otherwise.
func (t *TopK) Push(item ScoredDoc) {
	if t.capacity <= 0 {
		return
	}
	if t.h.Len() < t.capacity {
		heap.Push(&t.h, item)
		return
	}
	if better(item, t.h[0]) {
		t.h[0] = item
		heap.Fix(&t.h, 0)
	}
}

// Size returns the number of retained elements.
func (t *TopK) Size() int {
	return t.h.Len()
}

// Empty reports whether nothing is retained.
func (t *TopK) Empty() bool {
	return t.h.Len() == 0
}

// IsFull reports whether the heap is at capacity.
func (t *TopK) IsFull() bool {
	return t.h.Len() >= t.capacity
}

// Capacity returns K.
func (t *TopK) Capacity() int {
	return t.capacity
}

// MinScore returns the lowest retained score, or 0 when empty. Useful for
// early termination: candidates scoring below it cannot enter a full heap.
func (t *TopK) MinScore() float64 {
	if t.h.Len() == 0 {
		return 0
	}
	return t.h[0].Score
}

// Peek returns the retained elements in descending rank order without
// draining the heap.
func (t *TopK) Peek() []ScoredDoc {
	tmp := make(scoredDocHeap, len(t.h))
	copy(tmp, t.h)
	out := make([]ScoredDoc, 0, len(tmp))
	for tmp.Len() > 0 {
		out = append(out, heap.Pop(&tmp).(ScoredDoc))
	}
	reverse(out)
	return out
}

// Sorted drains the heap and returns its elements in descending rank order
// (highest score first, doc id ascending on ties).
func (t *TopK) Sorted() []ScoredDoc {
	out := make([]ScoredDoc, 0, t.h.Len())
	for t.h.Len() > 0 {
		out = append(out, heap.Pop(&t.h).(ScoredDoc))
	}
	reverse(out)
	return out
}

// Clear empties the heap.
func (t *TopK) Clear() {
	t.h = t.h[:0]
}

func reverse(s []ScoredDoc) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// scoredDocHeap is a min-heap ordered so the worst-ranked element is at
// index 0.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	return better(h[j], h[i])
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

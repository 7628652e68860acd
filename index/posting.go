// Package index implements the in-memory inverted index: term to posting
// list with positions, sparse skip pointers for fast AND intersection, and
// copy-on-read access for concurrent searches.
package index

import "math"

// Posting records one document's occurrences of a term.
type Posting struct {
	DocID         uint64   `json:"doc_id"`
	TermFrequency uint32   `json:"term_frequency"`
	Positions     []uint32 `json:"positions"`
}

// SkipPointer is a sparse index entry over a posting list: the list position
// it points at and the doc id stored there.
type SkipPointer struct {
	Position int
	DocID    uint64
}

// PostingList holds a term's postings in strictly ascending doc-id order
// plus derived skip pointers. The skip pointers are a cache: mutations mark
// them dirty and they are rebuilt lazily on read or explicitly via Rebuild.
type PostingList struct {
	Postings []Posting

	skips        []SkipPointer
	skipInterval int
	dirty        bool
}

// DocFrequency returns the number of documents in the list.
func (pl *PostingList) DocFrequency() int {
	return len(pl.Postings)
}

// SkipPointers returns the skip pointers, rebuilding them first if a
// mutation invalidated them.
func (pl *PostingList) SkipPointers() []SkipPointer {
	if pl.dirty || pl.skips == nil {
		pl.Rebuild(pl.skipInterval)
	}
	return pl.skips
}

// Dirty reports whether the skip pointers need a rebuild.
func (pl *PostingList) Dirty() bool {
	return pl.dirty
}

// markDirty invalidates the derived skip pointers.
func (pl *PostingList) markDirty() {
	pl.dirty = true
}

// Rebuild recomputes the skip pointers at the given interval. An interval
// of zero selects the default floor(sqrt(len)) spacing, minimum one. Skip
// pointers are stored at list positions 0, s, 2s, ...
func (pl *PostingList) Rebuild(interval int) {
	if interval <= 0 {
		interval = defaultSkipInterval(len(pl.Postings))
	}
	pl.skipInterval = interval
	pl.skips = pl.skips[:0]
	for i := 0; i < len(pl.Postings); i += interval {
		pl.skips = append(pl.skips, SkipPointer{
			Position: i,
			DocID:    pl.Postings[i].DocID,
		})
	}
	pl.dirty = false
}

func defaultSkipInterval(n int) int {
	s := int(math.Sqrt(float64(n)))
	if s < 1 {
		s = 1
	}
	return s
}

// FindSkipTarget returns the list position of the greatest skip pointer
// whose doc id is <= target, or 0 when the first skip pointer already
// exceeds target. Merge cursors use it to leap forward during intersection.
func (pl *PostingList) FindSkipTarget(target uint64) int {
	skips := pl.SkipPointers()
	if len(skips) == 0 || skips[0].DocID > target {
		return 0
	}
	lo, hi := 0, len(skips)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if skips[mid].DocID <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return skips[lo].Position
}

// clone returns a deep copy of the list, skip pointers included.
func (pl *PostingList) clone() *PostingList {
	out := &PostingList{
		Postings:     make([]Posting, len(pl.Postings)),
		skipInterval: pl.skipInterval,
		dirty:        pl.dirty,
	}
	for i, p := range pl.Postings {
		cp := Posting{DocID: p.DocID, TermFrequency: p.TermFrequency}
		if p.Positions != nil {
			cp.Positions = append([]uint32(nil), p.Positions...)
		}
		out.Postings[i] = cp
	}
	if pl.skips != nil {
		out.skips = append([]SkipPointer(nil), pl.skips...)
	}
	return out
}

// IntersectWithSkips merges two posting lists and returns the doc ids
// common to both, ascending. Whenever one cursor lags the other it is
// advanced via the lagging list's skip pointers when they help, otherwise
// one step at a time.
func IntersectWithSkips(a, b *PostingList) []uint64 {
	var result []uint64
	i, j := 0, 0
	for i < len(a.Postings) && j < len(b.Postings) {
		da := a.Postings[i].DocID
		db := b.Postings[j].DocID
		switch {
		case da == db:
			result = append(result, da)
			i++
			j++
		case da < db:
			if pos := a.FindSkipTarget(db); pos > i {
				i = pos
			} else {
				i++
			}
		default:
			if pos := b.FindSkipTarget(da); pos > j {
				j = pos
			} else {
				j++
			}
		}
	}
	return result
}

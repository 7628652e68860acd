package index

import "sync"

// InvertedIndex maps analyzed terms to posting lists. It is safe for
// concurrent readers with a single writer; lookups hand out copies so
// callers never hold references into the live lists.
type InvertedIndex struct {
	mu    sync.RWMutex
	terms map[string]*PostingList
}

// New returns an empty InvertedIndex.
func New() *InvertedIndex {
	return &InvertedIndex{
		terms: make(map[string]*PostingList),
	}
}

// AddTerm records one occurrence of term in docID at the given emitted
// position. Documents are indexed in one contiguous session under the
// engine's write lock, so doc ids arrive monotonically within a term and
// appending preserves the ascending-order invariant.
func (ii *InvertedIndex) AddTerm(term string, docID uint64, position uint32) {
	ii.mu.Lock()
	defer ii.mu.Unlock()

	pl, ok := ii.terms[term]
	if !ok {
		pl = &PostingList{}
		ii.terms[term] = pl
	}
	n := len(pl.Postings)
	if n > 0 && pl.Postings[n-1].DocID == docID {
		last := &pl.Postings[n-1]
		last.TermFrequency++
		if position != 0 {
			last.Positions = append(last.Positions, position)
		}
	} else {
		pl.Postings = append(pl.Postings, Posting{
			DocID:         docID,
			TermFrequency: 1,
			Positions:     []uint32{position},
		})
	}
	pl.markDirty()
}

// GetPostings returns a copy of the postings for term, or nil when the term
// is absent.
func (ii *InvertedIndex) GetPostings(term string) []Posting {
	ii.mu.RLock()
	defer ii.mu.RUnlock()
	pl, ok := ii.terms[term]
	if !ok {
		return nil
	}
	out := make([]Posting, len(pl.Postings))
	for i, p := range pl.Postings {
		cp := Posting{DocID: p.DocID, TermFrequency: p.TermFrequency}
		if p.Positions != nil {
			cp.Positions = append([]uint32(nil), p.Positions...)
		}
		out[i] = cp
	}
	return out
}

// GetPostingList returns a copy of the term's posting list with skip
// pointers materialized. An absent term yields an empty list with no skips.
func (ii *InvertedIndex) GetPostingList(term string) *PostingList {
	ii.mu.RLock()
	pl, ok := ii.terms[term]
	if !ok {
		ii.mu.RUnlock()
		return &PostingList{}
	}
	if pl.Dirty() {
		// Rebuild under the write lock, then re-acquire for the copy.
		ii.mu.RUnlock()
		ii.mu.Lock()
		if pl2, still := ii.terms[term]; still && pl2.Dirty() {
			pl2.Rebuild(pl2.skipInterval)
		}
		ii.mu.Unlock()
		ii.mu.RLock()
		pl, ok = ii.terms[term]
		if !ok {
			ii.mu.RUnlock()
			return &PostingList{}
		}
	}
	out := pl.clone()
	ii.mu.RUnlock()
	if out.dirty {
		out.Rebuild(out.skipInterval)
	}
	return out
}

// RemoveDocument deletes every posting for docID, dropping posting lists
// that become empty and marking survivors dirty.
func (ii *InvertedIndex) RemoveDocument(docID uint64) {
	ii.mu.Lock()
	defer ii.mu.Unlock()
	for term, pl := range ii.terms {
		n := len(pl.Postings)
		kept := pl.Postings[:0]
		for _, p := range pl.Postings {
			if p.DocID != docID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(ii.terms, term)
			continue
		}
		if len(kept) != n {
			pl.Postings = kept
			pl.markDirty()
		}
	}
}

// DocumentFrequency returns the number of documents containing term.
func (ii *InvertedIndex) DocumentFrequency(term string) int {
	ii.mu.RLock()
	defer ii.mu.RUnlock()
	if pl, ok := ii.terms[term]; ok {
		return len(pl.Postings)
	}
	return 0
}

// TermCount returns the number of unique terms in the index.
func (ii *InvertedIndex) TermCount() int {
	ii.mu.RLock()
	defer ii.mu.RUnlock()
	return len(ii.terms)
}

// Clear empties the index.
func (ii *InvertedIndex) Clear() {
	ii.mu.Lock()
	defer ii.mu.Unlock()
	ii.terms = make(map[string]*PostingList)
}

// RebuildSkipPointers forces a rebuild of every posting list's skip
// pointers at the default interval.
func (ii *InvertedIndex) RebuildSkipPointers() {
	ii.mu.Lock()
	defer ii.mu.Unlock()
	for _, pl := range ii.terms {
		pl.Rebuild(0)
	}
}

// RebuildTermSkipPointers forces a rebuild for one term at the given
// interval (zero selects the default spacing). It reports whether the term
// exists.
func (ii *InvertedIndex) RebuildTermSkipPointers(term string, interval int) bool {
	ii.mu.Lock()
	defer ii.mu.Unlock()
	pl, ok := ii.terms[term]
	if !ok {
		return false
	}
	pl.Rebuild(interval)
	return true
}

// Vocabulary returns the set of indexed terms.
func (ii *InvertedIndex) Vocabulary() map[string]struct{} {
	ii.mu.RLock()
	defer ii.mu.RUnlock()
	vocab := make(map[string]struct{}, len(ii.terms))
	for term := range ii.terms {
		vocab[term] = struct{}{}
	}
	return vocab
}

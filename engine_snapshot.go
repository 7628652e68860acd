package searchlite

import (
	"sort"

	"github.com/searchlite/searchlite/document"
	"github.com/searchlite/searchlite/snapshot"
)

// SaveSnapshot serializes the engine state visible at call time to a single
// file, atomically. A failure leaves the in-memory engine unchanged.
func (e *Engine) SaveSnapshot(path string) error {
	e.mu.RLock()
	st := e.buildSnapshotLocked()
	e.mu.RUnlock()

	err := snapshot.Save(path, st)
	if e.mtx != nil {
		e.mtx.SnapshotOpsTotal.WithLabelValues("save", opStatus(err)).Inc()
	}
	if err != nil {
		e.logger.Error("snapshot save failed", "path", path, "error", err)
		return err
	}
	e.logger.Info("snapshot saved",
		"path", path,
		"documents", len(st.Documents),
		"terms", len(st.Terms),
	)
	return nil
}

// LoadSnapshot replaces the engine state with the snapshot at path. The
// file is fully read and validated before anything is touched, so a
// corrupt or unreadable snapshot leaves the engine exactly as it was. On
// success the fuzzy n-gram index is left unbuilt (it rebuilds on the next
// fuzzy query) and the query cache is cleared.
func (e *Engine) LoadSnapshot(path string) error {
	st, err := snapshot.Load(path)
	if e.mtx != nil {
		e.mtx.SnapshotOpsTotal.WithLabelValues("load", opStatus(err)).Inc()
	}
	if err != nil {
		e.logger.Error("snapshot load failed", "path", path, "error", err)
		return err
	}

	e.mu.Lock()
	e.idx.Clear()
	e.fz.Clear()
	e.docs = make(map[uint64]document.Document, len(st.Documents))
	e.totalTerms = 0
	e.nextDocID = st.NextDocID
	if e.nextDocID == 0 {
		e.nextDocID = 1
	}

	for _, doc := range st.Documents {
		stored := doc.Clone()
		e.docs[stored.ID] = stored
		e.totalTerms += int64(stored.TermCount)
		if stored.ID >= e.nextDocID {
			e.nextDocID = stored.ID + 1
		}
	}

	// Rebuild the index by replaying postings through AddTerm so the
	// positions round-trip.
	for _, tp := range st.Terms {
		for _, p := range tp.Postings {
			replayed := 0
			for _, pos := range p.Positions {
				e.idx.AddTerm(tp.Term, p.DocID, pos)
				replayed++
			}
			for ; replayed < int(p.TermFrequency); replayed++ {
				e.idx.AddTerm(tp.Term, p.DocID, 0)
			}
		}
	}
	e.mu.Unlock()

	e.qcache.Clear()
	e.logger.Info("snapshot loaded",
		"path", path,
		"documents", len(st.Documents),
		"terms", len(st.Terms),
	)
	return nil
}

// buildSnapshotLocked assembles the codec's State view. Caller must hold
// mu at least shared.
func (e *Engine) buildSnapshotLocked() *snapshot.State {
	st := &snapshot.State{
		NextDocID: e.nextDocID,
		Documents: make([]document.Document, 0, len(e.docs)),
	}
	for _, doc := range e.docs {
		st.Documents = append(st.Documents, doc.Clone())
	}
	sort.Slice(st.Documents, func(i, j int) bool {
		return st.Documents[i].ID < st.Documents[j].ID
	})

	vocab := e.idx.Vocabulary()
	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	st.Terms = make([]snapshot.TermPostings, 0, len(terms))
	for _, term := range terms {
		st.Terms = append(st.Terms, snapshot.TermPostings{
			Term:     term,
			Postings: e.idx.GetPostings(term),
		})
	}
	return st
}

func opStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

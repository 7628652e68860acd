package searchlite

import "github.com/searchlite/searchlite/document"

// IndexDocument installs a document and returns its id. A zero id gets the
// next monotonic id; a caller-supplied id wins and advances the internal
// counter past it. Any cached query results are invalidated.
func (e *Engine) IndexDocument(doc Document) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.indexDocumentLocked(doc)
	e.qcache.Clear()
	if e.mtx != nil {
		e.mtx.DocsIndexedTotal.Inc()
		e.updateGaugesLocked()
	}
	return id
}

// IndexDocuments installs a batch of documents under one write-lock
// acquisition and returns their ids in input order.
func (e *Engine) IndexDocuments(docs []Document) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]uint64, len(docs))
	for i, doc := range docs {
		ids[i] = e.indexDocumentLocked(doc)
	}
	e.qcache.Clear()
	if e.mtx != nil {
		e.mtx.DocsIndexedTotal.Add(float64(len(docs)))
		e.updateGaugesLocked()
	}
	return ids
}

// UpdateDocument replaces the document stored under id in place. It reports
// false, changing nothing, when the id is unknown. Readers observe either
// the old or the new version, never a torn mix; the write lock spans the
// remove and the reinsert.
func (e *Engine) UpdateDocument(id uint64, doc Document) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.docs[id]; !ok {
		return false
	}
	e.removeDocumentLocked(id)
	doc.ID = id
	e.indexDocumentLocked(doc)
	e.qcache.Clear()
	return true
}

// DeleteDocument removes the document and all its postings. It reports
// false when the id is unknown.
func (e *Engine) DeleteDocument(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.docs[id]; !ok {
		return false
	}
	e.removeDocumentLocked(id)
	e.qcache.Clear()
	if e.mtx != nil {
		e.mtx.DocsDeletedTotal.Inc()
		e.updateGaugesLocked()
	}
	return true
}

// indexDocumentLocked performs the indexing steps under mu: id assignment,
// tokenization of the concatenated field values, posting insertion, fuzzy
// index maintenance, and document storage.
func (e *Engine) indexDocumentLocked(doc document.Document) uint64 {
	id := doc.ID
	if id == 0 {
		id = e.nextDocID
	}
	if id >= e.nextDocID {
		e.nextDocID = id + 1
	}

	tokens := e.tok.TokenizeWithPositions(doc.AllText())
	doc.TermCount = len(tokens)

	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		e.idx.AddTerm(tok.Text, id, uint32(tok.Position))
		seen[tok.Text] = struct{}{}
	}
	// Keep the fuzzy vocabulary current only once it has been built; an
	// unbuilt index is populated wholesale on the first fuzzy query.
	if e.fz.IsBuilt() {
		for term := range seen {
			e.fz.AddTerm(term)
		}
	}

	if old, ok := e.docs[id]; ok {
		e.totalTerms -= int64(old.TermCount)
	}
	stored := doc.Clone()
	stored.ID = id
	e.docs[id] = stored
	e.totalTerms += int64(doc.TermCount)

	e.logger.Debug("document indexed", "doc_id", id, "term_count", doc.TermCount)
	return id
}

// removeDocumentLocked erases a document from the index, the fuzzy
// vocabulary, and the store. Caller must hold mu exclusively.
func (e *Engine) removeDocumentLocked(id uint64) {
	old, ok := e.docs[id]
	if !ok {
		return
	}
	e.idx.RemoveDocument(id)

	if e.fz.IsBuilt() {
		tokens := e.tok.TokenizeWithPositions(old.AllText())
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			seen[tok.Text] = struct{}{}
		}
		for term := range seen {
			if e.idx.DocumentFrequency(term) == 0 {
				e.fz.RemoveTerm(term)
			}
		}
	}

	e.totalTerms -= int64(old.TermCount)
	delete(e.docs, id)
	e.logger.Debug("document removed", "doc_id", id)
}

func (e *Engine) updateGaugesLocked() {
	e.mtx.IndexedDocsGauge.Set(float64(len(e.docs)))
	e.mtx.IndexedTermsGauge.Set(float64(e.idx.TermCount()))
}

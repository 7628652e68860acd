package searchlite

import (
	"github.com/searchlite/searchlite/rank"
	"github.com/searchlite/searchlite/tokenizer"
)

// SetTokenizer swaps the tokenizer. Documents already indexed keep the
// terms the previous tokenizer produced; reindex to re-analyze them. A nil
// tokenizer is rejected.
func (e *Engine) SetTokenizer(t *tokenizer.Tokenizer) bool {
	if t == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tok = t
	return true
}

// EnableSIMD toggles the tokenizer's wide-word fast path. It reports
// whether the fast path is actually active; the request is only honored on
// CPUs with the required vector extensions.
func (e *Engine) EnableSIMD(enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tok.EnableSIMD(enabled)
}

// SetStemmer selects the tokenizer's stemming stage.
func (e *Engine) SetStemmer(st tokenizer.StemmerType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tok.SetStemmer(st)
}

// SetRemoveStopwords toggles the tokenizer's stop-word filter.
func (e *Engine) SetRemoveStopwords(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tok.SetRemoveStopwords(enabled)
}

// RegisterCustomRanker adds (or replaces) a ranker under its own name. A
// nil ranker is rejected with no state change.
func (e *Engine) RegisterCustomRanker(r rank.Ranker) bool {
	return e.rankers.Register(r)
}

// SetDefaultRanker switches the default ranker; it reports false when the
// name is not registered.
func (e *Engine) SetDefaultRanker(name string) bool {
	return e.rankers.SetDefault(name)
}

// GetDefaultRanker returns the default ranker's name.
func (e *Engine) GetDefaultRanker() string {
	return e.rankers.Default()
}

// ListAvailableRankers returns the registered ranker names, sorted.
func (e *Engine) ListAvailableRankers() []string {
	return e.rankers.List()
}

// HasRanker reports whether a ranker is registered under name.
func (e *Engine) HasRanker(name string) bool {
	return e.rankers.Has(name)
}

// GetRanker returns the named ranker for direct parameter tuning, or nil
// when it is not registered.
func (e *Engine) GetRanker(name string) rank.Ranker {
	if r, ok := e.rankers.Lookup(name); ok {
		return r
	}
	return nil
}

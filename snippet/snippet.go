// Package snippet extracts highlighted excerpts from document text: the
// windows with the densest query-term matches, snapped to word boundaries,
// with matches wrapped in configurable markers.
package snippet

import (
	"sort"
	"strings"
)

// Options configures snippet generation.
type Options struct {
	MaxSnippetLength int    `json:"max_snippet_length" yaml:"maxSnippetLength"`
	NumSnippets      int    `json:"num_snippets" yaml:"numSnippets"`
	HighlightOpen    string `json:"highlight_open" yaml:"highlightOpen"`
	HighlightClose   string `json:"highlight_close" yaml:"highlightClose"`
}

// DefaultOptions returns the standard snippet configuration.
func DefaultOptions() Options {
	return Options{
		MaxSnippetLength: 150,
		NumSnippets:      3,
		HighlightOpen:    "<em>",
		HighlightClose:   "</em>",
	}
}

// normalized fills in zero-valued fields with defaults.
func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxSnippetLength <= 0 {
		o.MaxSnippetLength = def.MaxSnippetLength
	}
	if o.NumSnippets <= 0 {
		o.NumSnippets = def.NumSnippets
	}
	if o.HighlightOpen == "" && o.HighlightClose == "" {
		o.HighlightOpen = def.HighlightOpen
		o.HighlightClose = def.HighlightClose
	}
	return o
}

// Extractor generates snippets. It is stateless and safe for concurrent
// use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

type window struct {
	start, end int
	matches    int
}

type wordPos struct {
	start, end int
	lower      string
}

// GenerateSnippets returns highlighted excerpts of text containing the
// query terms. Text short enough to fit one snippet is returned whole with
// matches highlighted; otherwise the densest non-overlapping windows are
// chosen, snapped outward to whole words, and decorated with "..." on cut
// edges. When no window contains a match, a single fallback snippet from
// the start of the text is returned.
func (e *Extractor) GenerateSnippets(text string, queryTerms []string, opts Options) []string {
	if text == "" || len(queryTerms) == 0 {
		return nil
	}
	opts = opts.normalized()

	if len(text) <= opts.MaxSnippetLength {
		return []string{e.HighlightTerms(text, queryTerms, opts.HighlightOpen, opts.HighlightClose)}
	}

	windows := findBestWindows(text, queryTerms, opts.MaxSnippetLength, opts.NumSnippets)
	snippets := make([]string, 0, len(windows))
	for _, win := range windows {
		start, end := snapToWordBoundaries(text, win.start, win.end)
		highlighted := e.HighlightTerms(text[start:end], queryTerms, opts.HighlightOpen, opts.HighlightClose)
		if start > 0 {
			highlighted = "..." + highlighted
		}
		if end < len(text) {
			highlighted = highlighted + "..."
		}
		snippets = append(snippets, highlighted)
	}
	return snippets
}

// HighlightTerms wraps every whole-word, case-insensitive occurrence of a
// query term in the given markers, preserving the original case of the
// matched text.
func (e *Extractor) HighlightTerms(text string, queryTerms []string, openTag, closeTag string) string {
	if text == "" || len(queryTerms) == 0 {
		return text
	}
	termSet := lowerSet(queryTerms)

	var b strings.Builder
	b.Grow(len(text) + len(queryTerms)*(len(openTag)+len(closeTag))*2)

	i := 0
	for i < len(text) {
		if !isWordChar(text[i]) {
			b.WriteByte(text[i])
			i++
			continue
		}
		start := i
		for i < len(text) && isWordChar(text[i]) {
			i++
		}
		word := text[start:i]
		if _, ok := termSet[strings.ToLower(word)]; ok {
			b.WriteString(openTag)
			b.WriteString(word)
			b.WriteString(closeTag)
		} else {
			b.WriteString(word)
		}
	}
	return b.String()
}

// findBestWindows scores a window of up to windowSize characters starting
// at every word position by the number of query-term matches inside it,
// then greedily picks the top non-overlapping windows, returned in reading
// order.
func findBestWindows(text string, queryTerms []string, windowSize, numWindows int) []window {
	termSet := lowerSet(queryTerms)
	words := scanWords(text)
	if len(words) == 0 {
		return nil
	}

	scored := make([]window, 0, len(words))
	for wi := range words {
		start := words[wi].start
		end := start + windowSize
		if end > len(text) {
			end = len(text)
		}
		matches := 0
		for wj := wi; wj < len(words) && words[wj].start < end; wj++ {
			if _, ok := termSet[words[wj].lower]; ok {
				matches++
			}
		}
		if matches > 0 {
			scored = append(scored, window{start: start, end: end, matches: matches})
		}
	}

	if len(scored) == 0 {
		end := windowSize
		if end > len(text) {
			end = len(text)
		}
		return []window{{start: 0, end: end}}
	}

	// Highest density first; earlier text breaks ties.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].matches != scored[j].matches {
			return scored[i].matches > scored[j].matches
		}
		return scored[i].start < scored[j].start
	})

	var picked []window
	for _, w := range scored {
		if len(picked) >= numWindows {
			break
		}
		overlaps := false
		for _, p := range picked {
			if w.start < p.end && w.end > p.start {
				overlaps = true
				break
			}
		}
		if !overlaps {
			picked = append(picked, w)
		}
	}

	// Reading order for the final output.
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].start < picked[j].start
	})
	return picked
}

// snapToWordBoundaries moves a window edge that splits a word: the start
// advances past the broken word, the end extends to complete it.
func snapToWordBoundaries(text string, start, end int) (int, int) {
	if start > 0 && start < len(text) && isWordChar(text[start]) && isWordChar(text[start-1]) {
		for start < len(text) && isWordChar(text[start]) {
			start++
		}
		for start < len(text) && !isWordChar(text[start]) {
			start++
		}
	}
	if end < len(text) && end > 0 && isWordChar(text[end-1]) && isWordChar(text[end]) {
		for end < len(text) && isWordChar(text[end]) {
			end++
		}
	}
	if start >= end {
		end = start + 1
		if end > len(text) {
			end = len(text)
		}
	}
	return start, end
}

func scanWords(text string) []wordPos {
	var words []wordPos
	i := 0
	for i < len(text) {
		if !isWordChar(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && isWordChar(text[i]) {
			i++
		}
		words = append(words, wordPos{
			start: start,
			end:   i,
			lower: strings.ToLower(text[start:i]),
		})
	}
	return words
}

func lowerSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '\''
}

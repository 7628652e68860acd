// Package tokenizer turns raw text into analyzed terms. The pipeline is:
// ASCII case fold, byte classification into word/non-word runs, stop-word
// filtering, and optional suffix stemming. A wide-word fast path covers the
// fold and classification stages when the host CPU supports it; both paths
// emit byte-identical token streams.
package tokenizer

// StemmerType selects the stemming stage.
type StemmerType int

const (
	StemmerNone StemmerType = iota
	StemmerSimple
	StemmerPorter
)

// Token is a single analyzed term. Position is the ordinal among emitted
// tokens (dense after stop-word filtering); Start and End are byte offsets
// into the original text, [Start, End).
type Token struct {
	Text     string
	Position int
	Start    int
	End      int
}

// Tokenizer converts text to terms. It is a pure function of its
// configuration: the same input and settings always produce the same stream.
// Configuration is not synchronized; the engine guards it with its own lock.
type Tokenizer struct {
	lowercase       bool
	removeStopwords bool
	stopWords       map[string]struct{}
	stemmer         StemmerType
	simdRequested   bool
	simdActive      bool
}

// New returns a Tokenizer with lowercasing on, the default English stop-word
// list active, no stemming, and the fast path off.
func New() *Tokenizer {
	return &Tokenizer{
		lowercase:       true,
		removeStopwords: true,
		stopWords:       defaultStopWords,
	}
}

// SetLowercase toggles ASCII case folding.
func (t *Tokenizer) SetLowercase(enabled bool) {
	t.lowercase = enabled
}

// SetRemoveStopwords toggles the stop-word filter.
func (t *Tokenizer) SetRemoveStopwords(enabled bool) {
	t.removeStopwords = enabled
}

// SetStopWords replaces the stop-word set. The filter still has to be
// enabled via SetRemoveStopwords for the set to take effect.
func (t *Tokenizer) SetStopWords(stops map[string]struct{}) {
	t.stopWords = stops
}

// SetStemmer selects the stemming stage. StemmerPorter is accepted but is
// currently a pass-through; StemmerSimple is the supported path.
func (t *Tokenizer) SetStemmer(st StemmerType) {
	t.stemmer = st
}

// Stemmer returns the configured stemmer type.
func (t *Tokenizer) Stemmer() StemmerType {
	return t.stemmer
}

// EnableSIMD requests the wide-word fast path. The request is honored only
// when the CPU reports AVX2, SSE4.2, or ASIMD support; the return value
// reports whether the fast path is actually active.
func (t *Tokenizer) EnableSIMD(enabled bool) bool {
	t.simdRequested = enabled
	t.simdActive = enabled && fastPathSupported()
	return t.simdActive
}

// SIMDEnabled reports whether the fast path is active.
func (t *Tokenizer) SIMDEnabled() bool {
	return t.simdActive
}

// Tokenize returns the analyzed terms of text in emission order. Empty text
// yields an empty slice; every returned term is non-empty.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := t.TokenizeWithPositions(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Text
	}
	return terms
}

// TokenizeWithPositions returns the analyzed terms together with their
// emitted positions and byte offsets into the original text. Positions are
// dense (0..N-1) after stop-word filtering; offsets always refer to the
// original text, not the folded buffer.
func (t *Tokenizer) TokenizeWithPositions(text string) []Token {
	if len(text) == 0 {
		return nil
	}

	buf := []byte(text)
	if t.lowercase {
		if t.simdActive && len(buf) >= foldBlockSize {
			foldASCIIWide(buf)
		} else {
			foldASCII(buf)
		}
	}

	tokens := make([]Token, 0, len(buf)/6)
	pos := 0
	i := 0
	for i < len(buf) {
		if !isWordByte(buf[i]) {
			i++
			continue
		}
		start := i
		if t.simdActive {
			i = scanWordRunWide(buf, i)
		} else {
			for i < len(buf) && isWordByte(buf[i]) {
				i++
			}
		}
		word := string(buf[start:i])
		if t.removeStopwords {
			if _, stop := t.stopWords[word]; stop {
				continue
			}
		}
		word = t.stemWord(word)
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:     word,
			Position: pos,
			Start:    start,
			End:      i,
		})
		pos++
	}
	return tokens
}

func (t *Tokenizer) stemWord(word string) string {
	switch t.stemmer {
	case StemmerSimple:
		return stemSimple(word)
	case StemmerPorter:
		return stemPorter(word)
	default:
		return word
	}
}

// isWordByte reports whether b belongs to a token: ASCII alphanumeric or
// apostrophe. Non-ASCII bytes are run delimiters.
func isWordByte(b byte) bool {
	return wordByteTable[b]
}

var wordByteTable = buildWordByteTable()

func buildWordByteTable() [256]bool {
	var table [256]bool
	for b := '0'; b <= '9'; b++ {
		table[b] = true
	}
	for b := 'a'; b <= 'z'; b++ {
		table[b] = true
	}
	for b := 'A'; b <= 'Z'; b++ {
		table[b] = true
	}
	table['\''] = true
	return table
}

// foldASCII lowercases A-Z in place, one byte at a time. Non-ASCII bytes
// are untouched.
func foldASCII(buf []byte) {
	for i, b := range buf {
		if b >= 'A' && b <= 'Z' {
			buf[i] = b + 0x20
		}
	}
}

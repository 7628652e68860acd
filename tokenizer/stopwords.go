package tokenizer

// defaultStopWords is the shipped English stop-word list. Callers can swap
// it out with SetStopWords.
var defaultStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// DefaultStopWords returns a copy of the shipped stop-word list.
func DefaultStopWords() map[string]struct{} {
	out := make(map[string]struct{}, len(defaultStopWords))
	for w := range defaultStopWords {
		out[w] = struct{}{}
	}
	return out
}

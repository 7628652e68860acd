package tokenizer

import "strings"

// stemSimple strips at most one suffix per token, longest rule first.
// Tokens shorter than four characters are returned as-is.
func stemSimple(word string) string {
	if len(word) < 4 {
		return word
	}
	for _, rule := range simpleSuffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			return word[:len(word)-len(rule.suffix)] + rule.replacement
		}
	}
	// Trailing "s" not preceded by another "s".
	if word[len(word)-1] == 's' && word[len(word)-2] != 's' {
		return word[:len(word)-1]
	}
	return word
}

var simpleSuffixRules = []struct {
	suffix      string
	replacement string
}{
	{"ational", "ate"},
	{"tional", "tion"},
	{"ional", "ion"},
	{"ing", ""},
	{"ed", ""},
	{"ly", ""},
}

// stemPorter is a placeholder: the Porter algorithm is declared in the
// configuration surface but not implemented. It returns its input.
func stemPorter(word string) string {
	return word
}

package fuzzy

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vocab(terms ...string) map[string]struct{} {
	v := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		v[t] = struct{}{}
	}
	return v
}

func TestDamerauLevenshteinLiterals(t *testing.T) {
	tests := []struct {
		s1, s2 string
		max    int
		want   int
	}{
		{"teh", "the", 2, 1},         // transposition
		{"recieve", "receive", 2, 1}, // transposition
		{"kitten", "sitting", 5, 3},
		{"machne", "machine", 2, 1}, // insertion
		{"abc", "abc", 2, 0},
		{"", "abc", 5, 3},
		{"abc", "", 5, 3},
		{"ab", "ba", 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DamerauLevenshteinDistance(tt.s1, tt.s2, tt.max),
			"distance(%q, %q)", tt.s1, tt.s2)
	}
}

func TestDamerauLevenshteinBounded(t *testing.T) {
	// Length gap beyond the bound short-circuits.
	assert.Equal(t, 2, DamerauLevenshteinDistance("a", "abcdef", 1))
	// Row-minimum early exit.
	assert.Equal(t, 2, DamerauLevenshteinDistance("aaaa", "zzzz", 1))
}

func TestDamerauLevenshteinProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	wordGen := gen.RegexMatch("[a-z]{0,12}")

	properties.Property("identity is zero", prop.ForAll(
		func(s string) bool {
			return DamerauLevenshteinDistance(s, s, 3) == 0
		},
		wordGen,
	))
	properties.Property("symmetric", prop.ForAll(
		func(s1, s2 string) bool {
			bound := len(s1) + len(s2) + 1
			return DamerauLevenshteinDistance(s1, s2, bound) ==
				DamerauLevenshteinDistance(s2, s1, bound)
		},
		wordGen, wordGen,
	))
	properties.Property("bounded by longer length", prop.ForAll(
		func(s1, s2 string) bool {
			maxLen := len(s1)
			if len(s2) > maxLen {
				maxLen = len(s2)
			}
			return DamerauLevenshteinDistance(s1, s2, maxLen+1) <= maxLen
		},
		wordGen, wordGen,
	))
	properties.TestingRun(t)
}

func TestAutoMaxEditDistance(t *testing.T) {
	assert.Equal(t, 0, AutoMaxEditDistance(1))
	assert.Equal(t, 0, AutoMaxEditDistance(2))
	assert.Equal(t, 1, AutoMaxEditDistance(3))
	assert.Equal(t, 1, AutoMaxEditDistance(4))
	assert.Equal(t, 2, AutoMaxEditDistance(5))
	assert.Equal(t, 2, AutoMaxEditDistance(20))
}

func TestBuildNgramIndex(t *testing.T) {
	s := New()
	assert.False(t, s.IsBuilt())

	s.BuildNgramIndex(vocab("machine", "learning"))
	assert.True(t, s.IsBuilt())
	assert.Equal(t, 2, s.VocabularySize())
}

func TestAddRemoveTermKeepsInvariant(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("alpha"))

	s.AddTerm("beta")
	assert.Equal(t, 2, s.VocabularySize())
	matches := s.FindMatches("betta", 1, 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "beta", matches[0].MatchedTerm)

	s.RemoveTerm("beta")
	assert.Equal(t, 1, s.VocabularySize())
	assert.Empty(t, s.FindMatches("betta", 1, 10))

	// Removing an absent term is a no-op.
	s.RemoveTerm("beta")
	assert.Equal(t, 1, s.VocabularySize())
}

func TestFindMatchesAutoDistance(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("machine", "learning", "matching"))

	matches := s.FindMatches("machne", 0, 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "machine", matches[0].MatchedTerm)
	assert.Equal(t, "machne", matches[0].OriginalTerm)
	assert.Equal(t, 1, matches[0].Distance)
}

func TestFindMatchesShortTermExactOnly(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("go", "got"))

	// Two characters: exact match only.
	matches := s.FindMatches("go", 0, 10)
	require.Len(t, matches, 1)
	assert.Equal(t, "go", matches[0].MatchedTerm)
	assert.Equal(t, 0, matches[0].Distance)

	assert.Empty(t, s.FindMatches("gq", 0, 10))
}

func TestFindMatchesOrderingAndTruncation(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("cart", "card", "care", "core", "tart"))

	matches := s.FindMatches("carx", 1, 2)
	require.Len(t, matches, 2)
	// Distance ties break lexicographically.
	assert.Equal(t, "card", matches[0].MatchedTerm)
	assert.Equal(t, "care", matches[1].MatchedTerm)
}

func TestFindMatchesRespectsMaxDistance(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("abcdef"))

	assert.Empty(t, s.FindMatches("abzzzf", 1, 10))
	got := s.FindMatches("abczef", 1, 10)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Distance)
}

func TestClear(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("one", "two"))
	s.Clear()
	assert.False(t, s.IsBuilt())
	assert.Equal(t, 0, s.VocabularySize())
	assert.Empty(t, s.FindMatches("one", 1, 10))
}

func TestFindMatchesEmptyTerm(t *testing.T) {
	s := New()
	s.BuildNgramIndex(vocab("x"))
	assert.Empty(t, s.FindMatches("", 2, 10))
}

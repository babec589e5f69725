package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryTokenizeKeywordMapping(t *testing.T) {
	qt := NewQueryTokenizer()

	tokens := qt.Tokenize("rising tech")
	require.Contains(t, tokens, TokenPriceUp)
	require.Contains(t, tokens, "bullish")
	require.Contains(t, tokens, "sector_technology")
}

func TestQueryTokenizePhrasesBeforeWords(t *testing.T) {
	qt := NewQueryTokenizer()

	tokens := qt.Tokenize("blue chip stocks")
	require.Contains(t, tokens, TokenLargeCap)
	require.Contains(t, tokens, "blue_chip")
	// phrase parts must not leak through as literal words
	require.NotContains(t, tokens, "blue")
	require.NotContains(t, tokens, "chip")
}

func TestQueryTokenizeStopwordsDropped(t *testing.T) {
	qt := NewQueryTokenizer()

	tokens := qt.Tokenize("the best stocks for growth")
	require.NotContains(t, tokens, "the")
	require.NotContains(t, tokens, "for")
	require.NotContains(t, tokens, "stocks")
	require.Contains(t, tokens, "best")
	require.Contains(t, tokens, "growth")
}

func TestQueryTokenizeUnknownWordsPassThrough(t *testing.T) {
	qt := NewQueryTokenizer()

	tokens := qt.Tokenize("apple nvda")
	require.Contains(t, tokens, "apple")
	require.Contains(t, tokens, "nvda")
}

func TestQueryTokenizeNoDuplicates(t *testing.T) {
	qt := NewQueryTokenizer()

	tokens := qt.Tokenize("rising rising up bullish")
	seen := map[string]int{}
	for _, tok := range tokens {
		seen[tok]++
	}
	for tok, n := range seen {
		require.Equal(t, 1, n, "token %q appears %d times", tok, n)
	}
}

func TestQueryTokenizeEmpty(t *testing.T) {
	qt := NewQueryTokenizer()
	require.Nil(t, qt.Tokenize(""))
	require.Nil(t, qt.Tokenize("   "))
}

func TestQueryTokenizeDeterministicOrder(t *testing.T) {
	qt := NewQueryTokenizer()
	first := qt.Tokenize("cheap high volume energy stocks")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, qt.Tokenize("cheap high volume energy stocks"))
	}
}

func TestContainsWordBoundaries(t *testing.T) {
	require.True(t, containsWord("rising tech stocks", "tech"))
	require.False(t, containsWord("momentum plays", "it"))
	require.False(t, containsWord("fintech firms", "tech"))
	require.True(t, containsWord("tech", "tech"))
}

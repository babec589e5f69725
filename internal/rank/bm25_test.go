package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenized(symbol string, tokens ...string) TokenizedSnapshot {
	s := snap(symbol, symbol, "", 100, 0)
	return TokenizedSnapshot{Snapshot: s, Tokens: NewTokenSet(tokens...)}
}

func TestRankDiscriminativeTokensScoreHigher(t *testing.T) {
	r := NewRanker()

	// "bullish" appears in one doc, "active" in all three: the rare token
	// carries more weight.
	docs := []TokenizedSnapshot{
		tokenized("AAA", "active"),
		tokenized("BBB", "active"),
		tokenized("CCC", "active", "bullish"),
	}
	results := r.Rank([]string{"bullish", "active"}, docs, 10)
	require.Len(t, results, 3)
	require.Equal(t, "CCC", results[0].Symbol)
	require.Greater(t, results[0].Score, results[1].Score)
	require.Equal(t, []string{"active", "bullish"}, results[0].Matched)
}

func TestRankZeroScoreDropped(t *testing.T) {
	r := NewRanker()

	docs := []TokenizedSnapshot{
		tokenized("AAA", "rising"),
		tokenized("BBB", "falling"),
	}
	results := r.Rank([]string{"rising"}, docs, 10)
	require.Len(t, results, 1)
	require.Equal(t, "AAA", results[0].Symbol)
}

func TestRankTieBreaksBySymbol(t *testing.T) {
	r := NewRanker()

	docs := []TokenizedSnapshot{
		tokenized("MSFT", "rising", "tech"),
		tokenized("AAPL", "rising", "tech"),
		tokenized("NVDA", "rising", "tech"),
	}
	results := r.Rank([]string{"rising"}, docs, 10)
	require.Len(t, results, 3)
	require.Equal(t, "AAPL", results[0].Symbol)
	require.Equal(t, "MSFT", results[1].Symbol)
	require.Equal(t, "NVDA", results[2].Symbol)
}

func TestRankTopK(t *testing.T) {
	r := NewRanker()

	docs := []TokenizedSnapshot{
		tokenized("AAA", "rising"),
		tokenized("BBB", "rising"),
		tokenized("CCC", "rising"),
		tokenized("DDD", "rising"),
	}
	require.Len(t, r.Rank([]string{"rising"}, docs, 2), 2)
	require.Len(t, r.Rank([]string{"rising"}, docs, 0), 4)
}

func TestRankEmptyInputs(t *testing.T) {
	r := NewRanker()
	require.Nil(t, r.Rank(nil, []TokenizedSnapshot{tokenized("AAA", "rising")}, 5))
	require.Nil(t, r.Rank([]string{"rising"}, nil, 5))
}

func TestTfWeightShorterDocsScoreHigher(t *testing.T) {
	// With b > 0 a doc shorter than average gets a larger weight for the
	// same match.
	short := tfWeight(1, DefaultK1, DefaultB, 5, 10)
	long := tfWeight(1, DefaultK1, DefaultB, 20, 10)
	require.Greater(t, short, long)
}

func TestTfWeightMonotonicInTf(t *testing.T) {
	prev := 0.0
	for tf := 1.0; tf <= 5; tf++ {
		w := tfWeight(tf, DefaultK1, DefaultB, 10, 10)
		require.Greater(t, w, prev)
		prev = w
	}
}

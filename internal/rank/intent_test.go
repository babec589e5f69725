package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func directional(symbol string, change float64) RankedResult {
	return RankedResult{
		Symbol:   symbol,
		Score:    1,
		Snapshot: snap(symbol, symbol, "", 100, change),
	}
}

func TestDetectIntent(t *testing.T) {
	require.Equal(t, DirectionPositive, DetectIntent("rising tech stocks"))
	require.Equal(t, DirectionPositive, DetectIntent("today's winners"))
	require.Equal(t, DirectionNegative, DetectIntent("stocks dropping fast"))
	require.Equal(t, DirectionNegative, DetectIntent("biggest losers"))
	require.Equal(t, DirectionBoth, DetectIntent("rising and falling movers"))
	require.Equal(t, DirectionNone, DetectIntent("large cap healthcare"))
}

func TestDetectIntentWordBoundary(t *testing.T) {
	// "upgrade" contains "up" but is not directional
	require.Equal(t, DirectionNone, DetectIntent("analyst upgrade candidates"))
}

func TestApplySoftIntentFiltersByDirection(t *testing.T) {
	results := []RankedResult{
		directional("AAA", 2.0),
		directional("BBB", -1.5),
		directional("CCC", 0.8),
	}

	kept := ApplySoftIntent(results, DirectionPositive)
	require.Len(t, kept, 2)
	for _, r := range kept {
		require.Greater(t, r.Snapshot.Change(), 0.0)
	}

	kept = ApplySoftIntent(results, DirectionNegative)
	require.Len(t, kept, 1)
	require.Equal(t, "BBB", kept[0].Symbol)
}

func TestApplySoftIntentNeverEmptiesResults(t *testing.T) {
	results := []RankedResult{
		directional("AAA", -2.0),
		directional("BBB", -0.5),
	}
	// positive intent contradicts every result: filter is skipped
	kept := ApplySoftIntent(results, DirectionPositive)
	require.Equal(t, results, kept)
}

func TestApplySoftIntentNoOpDirections(t *testing.T) {
	results := []RankedResult{directional("AAA", 1), directional("BBB", -1)}
	require.Equal(t, results, ApplySoftIntent(results, DirectionNone))
	require.Equal(t, results, ApplySoftIntent(results, DirectionBoth))
}

func TestApplySoftIntentZeroChangeExcluded(t *testing.T) {
	results := []RankedResult{
		directional("AAA", 0),
		directional("BBB", 1.2),
	}
	kept := ApplySoftIntent(results, DirectionPositive)
	require.Len(t, kept, 1)
	require.Equal(t, "BBB", kept[0].Symbol)
}

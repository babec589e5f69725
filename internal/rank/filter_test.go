package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractHardFiltersSectorKeywords(t *testing.T) {
	require.True(t, ExtractHardFilters("rising tech stocks").Has("sector_technology"))
	require.True(t, ExtractHardFilters("undervalued bank shares").Has("sector_financial_services"))
	require.True(t, ExtractHardFilters("oil and gas producers").Has("sector_energy"))
	require.Equal(t, 0, ExtractHardFilters("momentum winners").Len())
}

func TestExtractHardFiltersWordBoundary(t *testing.T) {
	// "it" only matches as a standalone word, never inside other words
	require.Equal(t, 0, ExtractHardFilters("profits with momentum").Len())
	require.True(t, ExtractHardFilters("it services companies").Has("sector_technology"))
	// "fintech" must not trigger the tech sector
	require.Equal(t, 0, ExtractHardFilters("fintech disruption").Len())
}

func TestExtractHardFiltersFirstKeywordWins(t *testing.T) {
	filters := ExtractHardFilters("tech and energy stocks")
	require.Equal(t, 1, filters.Len())
	require.True(t, filters.Has("sector_technology"))
}

func TestSectorFilterToken(t *testing.T) {
	tok, ok := SectorFilterToken("tech")
	require.True(t, ok)
	require.Equal(t, "sector_technology", tok)

	tok, ok = SectorFilterToken("Financial Services")
	require.True(t, ok)
	require.Equal(t, "sector_financial_services", tok)

	_, ok = SectorFilterToken("")
	require.False(t, ok)
	_, ok = SectorFilterToken("   ")
	require.False(t, ok)
}

func TestApplyHardFiltersAndLogic(t *testing.T) {
	docs := []TokenizedSnapshot{
		tokenized("AAA", "sector_technology", "rising"),
		tokenized("BBB", "sector_technology"),
		tokenized("CCC", "sector_energy", "rising"),
	}

	kept := ApplyHardFilters(docs, NewTokenSet("sector_technology"))
	require.Len(t, kept, 2)

	kept = ApplyHardFilters(docs, NewTokenSet("sector_technology", "rising"))
	require.Len(t, kept, 1)
	require.Equal(t, "AAA", kept[0].Snapshot.Symbol)

	// empty filter set passes everything through
	require.Len(t, ApplyHardFilters(docs, NewTokenSet()), 3)
}

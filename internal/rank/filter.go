package rank

import (
	"strings"

	"StockRank/internal/domain/models"
)

func toLowerTrim(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// sectorKeywords maps query words to mandatory sector tokens. Only category
// membership ever becomes a hard constraint; performance words (growth,
// volume, market cap) stay ranking signals so a sector query can never be
// starved down to zero results by them.
var sectorKeywords = []struct {
	keyword string
	token   string
}{
	{"tech", "sector_technology"},
	{"technology", "sector_technology"},
	{"software", "sector_technology"},
	{"it", "sector_technology"},

	{"finance", "sector_financial_services"},
	{"financial", "sector_financial_services"},
	{"bank", "sector_financial_services"},
	{"banking", "sector_financial_services"},

	{"energy", "sector_energy"},
	{"oil", "sector_energy"},
	{"gas", "sector_energy"},

	{"healthcare", "sector_healthcare"},
	{"health", "sector_healthcare"},
	{"pharma", "sector_healthcare"},
	{"pharmaceutical", "sector_healthcare"},

	{"automotive", "sector_automotive"},
	{"auto", "sector_automotive"},
	{"car", "sector_automotive"},
	{"ev", "sector_automotive"},

	{"retail", "sector_consumer_cyclical"},
	{"consumer", "sector_consumer_cyclical"},

	{"industrial", "sector_industrials"},
	{"manufacturing", "sector_industrials"},
}

// TokenizedSnapshot pairs a snapshot with its derived token set for the
// duration of one request.
type TokenizedSnapshot struct {
	Snapshot *models.Snapshot
	Tokens   TokenSet
}

// ExtractHardFilters scans a query for sector keywords, matched on word
// boundaries so that e.g. "momentum" never matches "it". The first keyword
// wins: one sector constraint per query.
func ExtractHardFilters(query string) TokenSet {
	q := toLowerTrim(query)
	filters := make(TokenSet, 1)
	for _, sk := range sectorKeywords {
		if containsWord(q, sk.keyword) {
			filters.Add(sk.token)
			break
		}
	}
	return filters
}

// SectorFilterToken resolves an explicit sector parameter to its token form.
// Known keywords map through the same table as query extraction; anything
// else is normalized directly.
func SectorFilterToken(sector string) (string, bool) {
	s := toLowerTrim(sector)
	if s == "" {
		return "", false
	}
	for _, sk := range sectorKeywords {
		if s == sk.keyword {
			return sk.token, true
		}
	}
	return SectorToken(sector), true
}

// ApplyHardFilters keeps only snapshots whose token set contains every
// required token (AND logic). An empty filter set passes the input through
// unchanged. This runs before ranking: BM25 alone is OR logic and would admit
// out-of-category records sharing unrelated tokens.
func ApplyHardFilters(snaps []TokenizedSnapshot, required TokenSet) []TokenizedSnapshot {
	if required.Len() == 0 {
		return snaps
	}
	filtered := make([]TokenizedSnapshot, 0, len(snaps))
	for _, ts := range snaps {
		if ts.Tokens.ContainsAll(required) {
			filtered = append(filtered, ts)
		}
	}
	return filtered
}

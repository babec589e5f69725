package rank

import (
	"sort"
	"strings"
	"time"

	"StockRank/internal/domain/models"
)

// RankingMethod identifies the scoring algorithm in response metadata.
const RankingMethod = "bm25"

const summaryMaxLen = 200

// tokenExplanations maps vocabulary tokens to fixed factual sentences.
// Static by design: identical ranked input must produce identical output for
// the response cache to be correct.
var tokenExplanations = map[string]string{
	TokenPriceUp:         "Price is rising",
	TokenPriceDown:       "Price is falling",
	TokenPriceStrongUp:   "Strong upward price movement",
	TokenPriceStrongDown: "Strong downward price movement",
	TokenPriceStable:     "Price is stable",
	"rising":             "Upward price trend detected",
	"falling":            "Downward price trend detected",
	"bullish":            "Bullish price action",
	"bearish":            "Bearish price action",

	TokenVolumeHigh:     "High trading volume",
	TokenVolumeVeryHigh: "Unusually high trading volume",
	TokenVolumeLow:      "Low trading volume",
	"active":            "Active trading activity",
	"high_activity":     "High trading activity",
	"low_activity":      "Low trading activity",

	TokenLargeCap: "Large market capitalization",
	TokenMidCap:   "Mid market capitalization",
	TokenSmallCap: "Small market capitalization",
	"mega_cap":    "Mega cap company",
	"blue_chip":   "Blue chip stock",

	TokenLowPrice:  "Low price level",
	TokenHighPrice: "High price level",

	"technology": "Technology company",
	"financial":  "Financial company",
	"healthcare": "Healthcare company",
	"energy":     "Energy company",
	"automotive": "Automotive company",
}

// Synthesizer converts ranked results into the API response shape. Pure
// transformation: no ranking logic, no external calls, no side effects.
type Synthesizer struct {
	explanations map[string]string
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{explanations: tokenExplanations}
}

// Synthesize assembles the response for a query from its ranked results.
func (sy *Synthesizer) Synthesize(query string, results []RankedResult, now time.Time) *models.SearchResponse {
	out := make([]models.SearchResult, 0, len(results))
	for i, r := range results {
		out = append(out, models.SearchResult{
			Symbol:      r.Snapshot.Symbol,
			CompanyName: r.Snapshot.CompanyName,
			Sector:      r.Snapshot.Sector,
			Rank:        i + 1,
			Score:       round4(r.Score),
			Reasons:     sy.reasons(r.Matched),
			Metrics:     models.SnapshotMetrics(r.Snapshot),
			Summary:     truncate(r.Snapshot.Summary, summaryMaxLen),
		})
	}
	return &models.SearchResponse{
		Metadata: models.SearchMetadata{
			Query:         query,
			Timestamp:     now.UTC(),
			TotalResults:  len(out),
			RankingMethod: RankingMethod,
		},
		Results: out,
	}
}

// reasons maps matched tokens to deduplicated, sorted explanation sentences.
func (sy *Synthesizer) reasons(matched []string) []string {
	seen := make(map[string]struct{}, len(matched))
	reasons := make([]string, 0, len(matched))
	for _, tok := range matched {
		expl, ok := sy.explain(tok)
		if !ok {
			continue
		}
		if _, dup := seen[expl]; dup {
			continue
		}
		seen[expl] = struct{}{}
		reasons = append(reasons, expl)
	}
	sort.Strings(reasons)
	return reasons
}

func (sy *Synthesizer) explain(token string) (string, bool) {
	if expl, ok := sy.explanations[token]; ok {
		return expl, true
	}
	// sector_financial_services -> "Financial Services sector"
	if name, ok := strings.CutPrefix(token, sectorTokenPrefix); ok {
		words := strings.Split(name, "_")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		return strings.Join(words, " ") + " sector", true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}

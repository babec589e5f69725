package rank

import (
	"strings"

	"StockRank/internal/domain/models"
)

// Snapshot token vocabulary. Queries are mapped into the same vocabulary, so
// matching is always exact token equality.
const (
	TokenPriceUp         = "price_up"
	TokenPriceDown       = "price_down"
	TokenPriceStrongUp   = "price_strong_up"
	TokenPriceStrongDown = "price_strong_down"
	TokenPriceStable     = "price_stable"
	TokenVolumeHigh      = "volume_high"
	TokenVolumeVeryHigh  = "volume_very_high"
	TokenVolumeLow       = "volume_low"
	TokenLargeCap        = "large_cap"
	TokenMidCap          = "mid_cap"
	TokenSmallCap        = "small_cap"
	TokenLowPrice        = "low_price"
	TokenHighPrice       = "high_price"

	sectorTokenPrefix = "sector_"
)

// corporate suffixes stripped from company-name tokens.
var nameStopwords = map[string]struct{}{
	"inc": {}, "corp": {}, "corporation": {}, "company": {},
	"co": {}, "ltd": {}, "limited": {}, "the": {},
}

// SnapshotTokenizer converts one market snapshot into its token set using
// fixed numeric thresholds. Pure: the same snapshot always yields the same
// tokens.
type SnapshotTokenizer struct {
	PriceUpThreshold   float64 // percent change
	PriceDownThreshold float64
	PriceStrongUp      float64
	PriceStrongDown    float64

	VolumeHighPct     float64 // percent vs average volume
	VolumeVeryHighPct float64
	VolumeLowPct      float64

	LargeCapBillions float64
	MidCapBillions   float64
}

// NewSnapshotTokenizer returns a tokenizer with the production thresholds.
func NewSnapshotTokenizer() *SnapshotTokenizer {
	return &SnapshotTokenizer{
		PriceUpThreshold:   0.5,
		PriceDownThreshold: -0.5,
		PriceStrongUp:      2.0,
		PriceStrongDown:    -2.0,
		VolumeHighPct:      50,
		VolumeVeryHighPct:  100,
		VolumeLowPct:       -30,
		LargeCapBillions:   200,
		MidCapBillions:     10,
	}
}

// Tokenize derives the token set for a snapshot. Missing optional fields
// simply contribute no tokens.
func (t *SnapshotTokenizer) Tokenize(s *models.Snapshot) TokenSet {
	tokens := make(TokenSet, 24)

	if s.ChangePercent != nil {
		switch change := *s.ChangePercent; {
		case change >= t.PriceStrongUp:
			tokens.Add(TokenPriceUp, TokenPriceStrongUp, "rising", "bullish")
		case change >= t.PriceUpThreshold:
			tokens.Add(TokenPriceUp, "rising")
		case change <= t.PriceStrongDown:
			tokens.Add(TokenPriceDown, TokenPriceStrongDown, "falling", "bearish")
		case change <= t.PriceDownThreshold:
			tokens.Add(TokenPriceDown, "falling")
		default:
			tokens.Add(TokenPriceStable)
		}
	}

	switch {
	case s.Volume != nil && s.AverageVolume != nil && *s.AverageVolume > 0:
		pct := (float64(*s.Volume) - float64(*s.AverageVolume)) / float64(*s.AverageVolume) * 100
		switch {
		case pct >= t.VolumeVeryHighPct:
			tokens.Add(TokenVolumeHigh, TokenVolumeVeryHigh, "high_activity")
		case pct >= t.VolumeHighPct:
			tokens.Add(TokenVolumeHigh, "active")
		case pct <= t.VolumeLowPct:
			tokens.Add(TokenVolumeLow, "low_activity")
		}
	case s.Volume != nil && *s.Volume > 1_000_000:
		tokens.Add(TokenVolumeHigh)
	case s.Volume != nil && *s.Volume < 100_000:
		tokens.Add(TokenVolumeLow)
	}

	if sector := strings.TrimSpace(s.Sector); sector != "" && sector != "Unknown" {
		tokens.Add(SectorToken(sector))
		tokens.Add(strings.ToLower(sector))
	}

	if s.MarketCap != nil {
		switch billions := *s.MarketCap / 1e9; {
		case billions >= t.LargeCapBillions:
			tokens.Add(TokenLargeCap, "mega_cap", "blue_chip")
		case billions >= t.MidCapBillions:
			tokens.Add(TokenMidCap)
		default:
			tokens.Add(TokenSmallCap)
		}
	}

	if s.Price != nil {
		if *s.Price < 10 {
			tokens.Add(TokenLowPrice)
		} else if *s.Price > 500 {
			tokens.Add(TokenHighPrice)
		}
	}

	if symbol := strings.TrimSpace(s.Symbol); symbol != "" {
		tokens.Add(strings.ToLower(symbol))
	}
	for _, w := range nameWords(s.CompanyName) {
		tokens.Add(w)
	}

	return tokens
}

// SectorToken normalizes a sector display name into its token form,
// e.g. "Financial Services" -> "sector_financial_services".
func SectorToken(sector string) string {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(sector), " ", "_"))
	return sectorTokenPrefix + norm
}

// nameWords splits a company name into lowercase word tokens with punctuation
// and corporate suffixes removed.
func nameWords(name string) []string {
	name = strings.ToLower(name)
	name = strings.NewReplacer(",", "", ".", "").Replace(name)
	fields := strings.Fields(name)
	out := fields[:0]
	for _, w := range fields {
		if _, stop := nameStopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

package rank

// Direction is the growth intent detected in a query.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionPositive
	DirectionNegative
	DirectionBoth
)

var growthPositiveWords = []string{
	"grow", "growing", "rise", "rising", "gain", "gaining",
	"bullish", "up", "increase", "increasing",
	"climb", "climbing", "surge", "surging", "rally", "rallying",
	"positive", "green", "winners", "gainers", "outperforming", "hot",
}

var growthNegativeWords = []string{
	"fall", "falling", "decline", "declining", "drop", "dropping",
	"bearish", "down", "decrease", "decreasing",
	"sink", "sinking", "crash", "crashing", "lose", "losing",
	"negative", "red", "losers", "underperforming", "cold",
}

// DetectIntent scans the raw query for directional keywords on word
// boundaries.
func DetectIntent(query string) Direction {
	q := toLowerTrim(query)
	pos := anyWord(q, growthPositiveWords)
	neg := anyWord(q, growthNegativeWords)
	switch {
	case pos && neg:
		return DirectionBoth
	case pos:
		return DirectionPositive
	case neg:
		return DirectionNegative
	default:
		return DirectionNone
	}
}

// ApplySoftIntent removes ranked results whose change_percent sign
// contradicts a single detected direction. It runs strictly after ranking.
// If it would remove every result it is skipped entirely: approximate results
// beat an empty page. Conflicting or absent intent is a no-op.
func ApplySoftIntent(results []RankedResult, dir Direction) []RankedResult {
	if dir != DirectionPositive && dir != DirectionNegative {
		return results
	}
	kept := make([]RankedResult, 0, len(results))
	for _, r := range results {
		change := r.Snapshot.Change()
		if dir == DirectionPositive && change > 0 {
			kept = append(kept, r)
		} else if dir == DirectionNegative && change < 0 {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return results
	}
	return kept
}

func anyWord(haystack string, words []string) bool {
	for _, w := range words {
		if containsWord(haystack, w) {
			return true
		}
	}
	return false
}

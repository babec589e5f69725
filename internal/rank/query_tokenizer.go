package rank

import (
	"sort"
	"strings"
)

// queryStopwords never survive into query tokens.
var queryStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "with": {},
	"in": {}, "of": {}, "for": {}, "to": {},
	"stocks": {}, "stock": {}, "shares": {},
}

// keywordMap maps query phrases and words onto the snapshot token vocabulary.
// Multi-word phrases are matched before single words, longest first.
var keywordMap = map[string][]string{
	// price movement
	"rising":  {TokenPriceUp, "rising", "bullish"},
	"falling": {TokenPriceDown, "falling", "bearish"},
	"up":      {TokenPriceUp, "rising"},
	"down":    {TokenPriceDown, "falling"},
	"gain":    {TokenPriceUp, "rising"},
	"loss":    {TokenPriceDown, "falling"},
	"surge":   {TokenPriceStrongUp, "bullish"},
	"drop":    {TokenPriceStrongDown, "bearish"},
	"bullish": {TokenPriceUp, "bullish", "rising"},
	"bearish": {TokenPriceDown, "bearish", "falling"},
	"stable":  {TokenPriceStable},
	"flat":    {TokenPriceStable},

	// volume
	"volume":      {TokenVolumeHigh, "active"},
	"high volume": {TokenVolumeHigh, TokenVolumeVeryHigh},
	"active":      {TokenVolumeHigh, "active", "high_activity"},
	"liquid":      {TokenVolumeHigh, "active"},
	"popular":     {TokenVolumeHigh, "active"},

	// market cap
	"large cap": {TokenLargeCap, "blue_chip"},
	"big":       {TokenLargeCap, "mega_cap"},
	"blue chip": {TokenLargeCap, "blue_chip"},
	"mid cap":   {TokenMidCap},
	"small cap": {TokenSmallCap},
	"penny":     {TokenSmallCap, TokenLowPrice},

	// sectors
	"tech":       {"sector_technology", "technology"},
	"technology": {"sector_technology", "technology"},
	"finance":    {"sector_financial_services", "financial"},
	"financial":  {"sector_financial_services", "financial"},
	"bank":       {"sector_financial_services", "financial"},
	"healthcare": {"sector_healthcare", "healthcare"},
	"health":     {"sector_healthcare", "healthcare"},
	"pharma":     {"sector_healthcare", "healthcare"},
	"energy":     {"sector_energy", "energy"},
	"oil":        {"sector_energy", "energy"},
	"automotive": {"sector_automotive", "automotive"},
	"auto":       {"sector_automotive", "automotive"},
	"car":        {"sector_automotive", "automotive"},
	"ev":         {"sector_automotive", "automotive"},

	// price levels
	"cheap":      {TokenLowPrice, TokenSmallCap},
	"expensive":  {TokenHighPrice, TokenLargeCap},
	"affordable": {TokenLowPrice},
}

// QueryTokenizer maps free text onto the snapshot token vocabulary. Known
// phrases win over single words; unknown words pass through verbatim so that
// literal symbol and company-name searches still match.
type QueryTokenizer struct {
	phrases []string // multi-word keys, longest first
}

func NewQueryTokenizer() *QueryTokenizer {
	var phrases []string
	for k := range keywordMap {
		if strings.Contains(k, " ") {
			phrases = append(phrases, k)
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	return &QueryTokenizer{phrases: phrases}
}

// Tokenize converts a query string into an ordered, duplicate-free token
// list. Pure: identical input yields identical tokens, which keeps cache keys
// stable.
func (qt *QueryTokenizer) Tokenize(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var tokens []string
	seen := make(map[string]struct{})
	add := func(ts ...string) {
		for _, t := range ts {
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				tokens = append(tokens, t)
			}
		}
	}

	consumed := make(map[string]struct{})
	for _, phrase := range qt.phrases {
		if containsWord(q, phrase) {
			add(keywordMap[phrase]...)
			for _, w := range strings.Fields(phrase) {
				consumed[w] = struct{}{}
			}
		}
	}

	for _, word := range strings.Fields(q) {
		if _, ok := consumed[word]; ok {
			continue
		}
		if mapped, ok := keywordMap[word]; ok {
			add(mapped...)
			continue
		}
		if _, stop := queryStopwords[word]; stop {
			continue
		}
		add(word)
	}

	return tokens
}

// containsWord reports whether needle occurs in haystack on word boundaries.
func containsWord(haystack, needle string) bool {
	for start := 0; ; {
		i := strings.Index(haystack[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(needle)
		leftOK := i == 0 || !isWordChar(haystack[i-1])
		rightOK := end == len(haystack) || !isWordChar(haystack[end])
		if leftOK && rightOK {
			return true
		}
		start = i + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

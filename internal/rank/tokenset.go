package rank

import "sort"

// TokenSet is an unordered set of symbolic tokens derived from a snapshot or
// a query. Derivation is deterministic, so a set is a stable cache value.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given tokens.
func NewTokenSet(tokens ...string) TokenSet {
	ts := make(TokenSet, len(tokens))
	for _, t := range tokens {
		ts[t] = struct{}{}
	}
	return ts
}

func (ts TokenSet) Add(tokens ...string) {
	for _, t := range tokens {
		ts[t] = struct{}{}
	}
}

func (ts TokenSet) Has(token string) bool {
	_, ok := ts[token]
	return ok
}

// ContainsAll reports whether every token in required is present.
func (ts TokenSet) ContainsAll(required TokenSet) bool {
	for t := range required {
		if _, ok := ts[t]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the tokens in lexicographic order.
func (ts TokenSet) Sorted() []string {
	out := make([]string, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (ts TokenSet) Len() int { return len(ts) }

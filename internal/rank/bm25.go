package rank

import (
	"math"
	"sort"

	"StockRank/internal/domain/models"
)

// Default BM25 parameters. Snapshots are similar length (10-30 tokens), so
// moderate saturation and length normalization work well.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// RankedResult is one scored snapshot. Ephemeral: recomputed per request and
// never persisted.
type RankedResult struct {
	Symbol   string
	Score    float64
	Snapshot *models.Snapshot
	Matched  []string // query tokens present in the snapshot, sorted
}

// Ranker scores token sets against query tokens with BM25. The index it
// builds is ephemeral, rebuilt per call over the already-filtered set.
type Ranker struct {
	K1 float64
	B  float64
}

func NewRanker() *Ranker {
	return &Ranker{K1: DefaultK1, B: DefaultB}
}

// Rank scores each snapshot against the query tokens and returns up to topK
// results ordered by score descending. Zero-score snapshots are dropped.
// Ties break by symbol ascending so output is reproducible. Empty query
// tokens or an empty snapshot list yield an empty result, not an error.
func (r *Ranker) Rank(queryTokens []string, snaps []TokenizedSnapshot, topK int) []RankedResult {
	if len(queryTokens) == 0 || len(snaps) == 0 {
		return nil
	}

	// Document frequency per token over the filtered set.
	df := make(map[string]int)
	totalLen := 0
	for _, ts := range snaps {
		totalLen += ts.Tokens.Len()
		for tok := range ts.Tokens {
			df[tok]++
		}
	}
	n := len(snaps)
	avgdl := float64(totalLen) / float64(n)

	results := make([]RankedResult, 0, n)
	for _, ts := range snaps {
		score, matched := r.score(queryTokens, ts.Tokens, avgdl, n, df)
		if score <= 0 {
			continue
		}
		results = append(results, RankedResult{
			Symbol:   ts.Snapshot.Symbol,
			Score:    score,
			Snapshot: ts.Snapshot,
			Matched:  matched,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Symbol < results[j].Symbol
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// score computes the BM25 score of one document:
//
//	score = Σ_t IDF(t) · tf·(k1+1) / (tf + k1·(1 - b + b·|D|/avgdl))
//	IDF(t) = ln((N - df(t) + 0.5)/(df(t) + 0.5) + 1)
//
// Tokens are a set, so tf is 0 or 1; saturation still matters for the
// length-normalized denominator.
func (r *Ranker) score(queryTokens []string, doc TokenSet, avgdl float64, n int, df map[string]int) (float64, []string) {
	var (
		score   float64
		matched []string
	)
	docLen := float64(doc.Len())
	for _, qt := range queryTokens {
		if !doc.Has(qt) {
			continue
		}
		freq := df[qt]
		if freq == 0 {
			continue
		}
		idf := math.Log((float64(n)-float64(freq)+0.5)/(float64(freq)+0.5) + 1.0)

		// Token sets make tf always 1; the weight function keeps the
		// general saturating form.
		score += idf * tfWeight(1, r.K1, r.B, docLen, avgdl)
		matched = append(matched, qt)
	}
	sort.Strings(matched)
	return score, matched
}

// tfWeight is the BM25 term-frequency component with saturation and length
// normalization. Monotonically non-decreasing in tf for fixed docLen.
func tfWeight(tf, k1, b, docLen, avgdl float64) float64 {
	return tf * (k1 + 1) / (tf + k1*(1-b+b*docLen/avgdl))
}

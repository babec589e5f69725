package rank

import (
	"time"

	"StockRank/internal/domain/models"
)

// overFetchFactor ranks extra candidates ahead of the soft intent filter so
// that narrowing still leaves enough results to fill the page.
const overFetchFactor = 3

// Pipeline runs the full deterministic query path:
// hard filter -> query tokenize -> BM25 -> soft intent -> synthesize.
// Every stage is pure, so for a fixed snapshot set and query the output is
// byte-identical across calls.
type Pipeline struct {
	snapshots *SnapshotTokenizer
	queries   *QueryTokenizer
	ranker    *Ranker
	synth     *Synthesizer
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		snapshots: NewSnapshotTokenizer(),
		queries:   NewQueryTokenizer(),
		ranker:    NewRanker(),
		synth:     NewSynthesizer(),
	}
}

// SnapshotTokenizer exposes the tokenizer for per-symbol token caching.
func (p *Pipeline) SnapshotTokenizer() *SnapshotTokenizer { return p.snapshots }

// TokenizeSnapshots derives token sets for rankable snapshots. Snapshots
// without a price are skipped entirely.
func (p *Pipeline) TokenizeSnapshots(snaps []*models.Snapshot) []TokenizedSnapshot {
	out := make([]TokenizedSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if !s.Valid() {
			continue
		}
		out = append(out, TokenizedSnapshot{Snapshot: s, Tokens: p.snapshots.Tokenize(s)})
	}
	return out
}

// Run executes the query path over pre-tokenized snapshots. The explicit
// sector parameter joins the hard-filter set alongside keywords extracted
// from the query text.
func (p *Pipeline) Run(query, sector string, limit int, snaps []TokenizedSnapshot, now time.Time) *models.SearchResponse {
	required := ExtractHardFilters(query)
	if tok, ok := SectorFilterToken(sector); ok {
		required.Add(tok)
	}
	candidates := ApplyHardFilters(snaps, required)

	queryTokens := p.queries.Tokenize(query)
	ranked := p.ranker.Rank(queryTokens, candidates, limit*overFetchFactor)
	ranked = ApplySoftIntent(ranked, DetectIntent(query))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return p.synth.Synthesize(query, ranked, now)
}

package models

import "time"

// SearchRequest is the query endpoint payload. Limit defaults and bounds are
// enforced by defaults/validator tags before the pipeline runs.
type SearchRequest struct {
	Query  string `json:"query" validate:"required,max=500"`
	Sector string `json:"sector,omitempty" validate:"omitempty,max=100"`
	Limit  int    `json:"limit,omitempty" default:"10" validate:"min=1,max=50"`
}

// SearchMetadata describes how a response was produced.
type SearchMetadata struct {
	Query         string    `json:"query"`
	Timestamp     time.Time `json:"timestamp"`
	TotalResults  int       `json:"total_results"`
	RankingMethod string    `json:"ranking_method"`
}

// SearchResult is one ranked entry in a search response.
type SearchResult struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"company_name"`
	Sector      string   `json:"sector"`
	Rank        int      `json:"rank"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons"`
	Metrics     Metrics  `json:"metrics"`
	Summary     string   `json:"summary,omitempty"`
}

// SearchResponse is the full query endpoint response. Message is set only for
// the "no data yet" case; an empty Results slice with no Message is a valid
// zero-match response.
type SearchResponse struct {
	Metadata SearchMetadata `json:"metadata"`
	Results  []SearchResult `json:"results"`
	Message  string         `json:"message,omitempty"`
	Cached   bool           `json:"cached,omitempty"`
}

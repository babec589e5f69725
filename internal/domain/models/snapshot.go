package models

import "time"

// Snapshot is the current market record for one symbol. A new snapshot
// replaces the previous one wholesale on each successful fetch; only the row
// with the greatest LastUpdated per symbol is authoritative.
//
// Numeric fields are pointers because the upstream feed routinely omits them.
// Null policy: a snapshot with Price == nil is never written as current and
// never enters tokenization or ranking.
type Snapshot struct {
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"company_name"`
	Sector        string    `json:"sector"`
	Price         *float64  `json:"price"`
	Volume        *int64    `json:"volume"`
	AverageVolume *int64    `json:"average_volume"`
	MarketCap     *float64  `json:"market_cap"`
	ChangePercent *float64  `json:"change_percent"`
	Summary       string    `json:"summary,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Valid reports whether the snapshot may be written as current.
func (s *Snapshot) Valid() bool {
	return s != nil && s.Symbol != "" && s.Price != nil
}

// Change returns the signed percent change, or 0 when unknown.
func (s *Snapshot) Change() float64 {
	if s.ChangePercent == nil {
		return 0
	}
	return *s.ChangePercent
}

// Metrics is the point-in-time numeric view of a snapshot included in
// search results.
type Metrics struct {
	Price         *float64  `json:"price"`
	Volume        *int64    `json:"volume"`
	AverageVolume *int64    `json:"average_volume"`
	MarketCap     *float64  `json:"market_cap"`
	ChangePercent *float64  `json:"change_percent"`
	LastUpdated   time.Time `json:"last_updated"`
}

// SnapshotMetrics extracts the Metrics view from a snapshot.
func SnapshotMetrics(s *Snapshot) Metrics {
	return Metrics{
		Price:         s.Price,
		Volume:        s.Volume,
		AverageVolume: s.AverageVolume,
		MarketCap:     s.MarketCap,
		ChangePercent: s.ChangePercent,
		LastUpdated:   s.LastUpdated,
	}
}

// Float64Ptr and Int64Ptr are small literal helpers for optional fields.
func Float64Ptr(v float64) *float64 { return &v }

func Int64Ptr(v int64) *int64 { return &v }

// Package upstream integrates the external market data feed. The feed is a
// plain JSON-over-HTTP quote API used as a black box.
package upstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockRank/internal/domain/models"
	drepo "StockRank/internal/domain/repository"
	xhttp "StockRank/pkg/http"
	"StockRank/pkg/util"
)

// quotePayload mirrors the feed's quote document. Numeric fields are pointers
// so an absent field stays distinguishable from zero.
type quotePayload struct {
	Symbol        string   `json:"symbol"`
	CompanyName   string   `json:"company_name"`
	Sector        string   `json:"sector"`
	Price         *float64 `json:"price"`
	MarketCap     *float64 `json:"market_cap"`
	ChangePercent *float64 `json:"change_percent"`
	Volume        *int64   `json:"volume"`
	AverageVolume *int64   `json:"average_volume"`
	Summary       string   `json:"summary"`
	LastUpdated   string   `json:"last_updated"`
}

// Client implements Quoter against the HTTP feed.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
}

// New creates a quote client.
func New(baseURL, apiKey string, timeout time.Duration) drepo.Quoter {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// Quote fetches the current snapshot for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Snapshot, error) {
	if symbol == "" {
		return nil, fmt.Errorf("upstream: empty symbol")
	}

	var payload quotePayload
	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
		},
	}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"X-Api-Key": c.apiKey}
	}

	if err := c.http.SendAndParse(ctx, opts, &payload); err != nil {
		return nil, fmt.Errorf("upstream quote %s: %w", symbol, err)
	}

	if payload.Symbol == "" {
		payload.Symbol = symbol
	}

	return &models.Snapshot{
		Symbol:        strings.ToUpper(payload.Symbol),
		CompanyName:   payload.CompanyName,
		Sector:        payload.Sector,
		Price:         payload.Price,
		MarketCap:     payload.MarketCap,
		ChangePercent: payload.ChangePercent,
		Volume:        payload.Volume,
		AverageVolume: payload.AverageVolume,
		Summary:       payload.Summary,
		LastUpdated:   util.ParseTimeDefault(payload.LastUpdated, time.Now()).UTC(),
	}, nil
}

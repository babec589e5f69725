package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestQuoteParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("unexpected symbol param %q", got)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("unexpected api key %q", got)
		}
		price := 182.5
		change := 1.4
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":         "aapl",
			"company_name":   "Apple Inc.",
			"sector":         "Technology",
			"price":          price,
			"change_percent": change,
		})
	}))
	defer srv.Close()

	q := New(srv.URL, "secret", 5*time.Second)
	snap, err := q.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if snap.Symbol != "AAPL" {
		t.Fatalf("expected uppercased symbol, got %q", snap.Symbol)
	}
	if snap.Price == nil || *snap.Price != 182.5 {
		t.Fatalf("unexpected price %+v", snap.Price)
	}
	if snap.Volume != nil {
		t.Fatalf("expected nil volume for absent field")
	}
	if snap.LastUpdated.IsZero() {
		t.Fatalf("expected last updated set")
	}
}

func TestQuoteHonorsFeedTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		price := 31.2
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":       "INTC",
			"price":        price,
			"last_updated": "2026-08-01T12:00:00Z",
		})
	}))
	defer srv.Close()

	q := New(srv.URL, "", time.Second)
	snap, err := q.Quote(context.Background(), "INTC")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	want := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if !snap.LastUpdated.Equal(want) {
		t.Fatalf("expected feed timestamp %v, got %v", want, snap.LastUpdated)
	}
}

func TestQuoteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	q := New(srv.URL, "", time.Second)
	if _, err := q.Quote(context.Background(), "MSFT"); err == nil {
		t.Fatalf("expected error on 429")
	}
}

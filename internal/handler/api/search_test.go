package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "StockRank/internal/domain/models"
	"StockRank/internal/usecase"
	"StockRank/pkg/cache"
	xlogger "StockRank/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	snaps []*models.Snapshot
}

func (s *stubStore) Init(ctx context.Context) error                               { return nil }
func (s *stubStore) Upsert(ctx context.Context, snap *models.Snapshot) error      { return nil }
func (s *stubStore) UpsertBatch(ctx context.Context, sn []*models.Snapshot) error { return nil }
func (s *stubStore) Close() error                                                 { return nil }
func (s *stubStore) Health(ctx context.Context) error                             { return nil }

func (s *stubStore) GetLatest(ctx context.Context, symbol string) (*models.Snapshot, error) {
	for _, snap := range s.snaps {
		if snap.Symbol == symbol {
			return snap, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *stubStore) ListLatest(ctx context.Context) ([]*models.Snapshot, error) {
	return s.snaps, nil
}

func newTestHandler(t *testing.T) *SearchHandler {
	t.Helper()

	change := 1.5
	price := 182.0
	store := &stubStore{snaps: []*models.Snapshot{{
		Symbol:        "AAPL",
		CompanyName:   "Apple Inc.",
		Sector:        "Technology",
		Price:         &price,
		ChangePercent: &change,
		LastUpdated:   time.Now().UTC(),
	}}}

	logger, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	search := usecase.NewSearch(store, cache.NewMemoryCache())
	return NewSearchHandler(logger, search)
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	body := `{"query":"rising tech stocks","limit":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Results)
	require.Equal(t, "AAPL", envelope.Data.Results[0].Symbol)
}

func TestSearchEndpointRejectsMissingQuery(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"limit":5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// the response envelope carries the status; transport stays 200
	var envelope struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, http.StatusBadRequest, envelope.Status)
}

func TestStocksEndpoint(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks?sector=technology", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Rows  []*models.Snapshot `json:"rows"`
			Total int64              `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, int64(1), envelope.Data.Total)
	require.Equal(t, "AAPL", envelope.Data.Rows[0].Symbol)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

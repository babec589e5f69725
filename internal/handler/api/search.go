package api

import (
	"net/http"

	models "StockRank/internal/domain/models"
	"StockRank/internal/usecase"
	xhttp "StockRank/pkg/http"
	xlogger "StockRank/pkg/logger"
	"StockRank/pkg/util"

	"github.com/labstack/echo/v4"
)

const maxListLimit = 200

// SearchHandler serves the query and listing endpoints.
type SearchHandler struct {
	logger *xlogger.Logger
	search *usecase.Search
}

func NewSearchHandler(logger *xlogger.Logger, search *usecase.Search) *SearchHandler {
	return &SearchHandler{logger: logger, search: search}
}

func (h *SearchHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/search", h.Search)
	g.GET("/stocks", h.Stocks)
	e.GET("/health", h.Health)
}

func (h *SearchHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.search.Run(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("search usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SearchHandler) Stocks(c echo.Context) error {
	sector := c.QueryParam("sector")
	limit := util.ParseIntDefault(c.QueryParam("limit"), 0)
	if limit < 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	snaps, err := h.search.ListStocks(c.Request().Context(), sector, limit)
	if err != nil {
		h.logger.Error("stocks listing error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, snaps, int64(len(snaps)))
}

func (h *SearchHandler) Health(c echo.Context) error {
	if err := h.search.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.ServiceUnavailableResponse(c, map[string]string{"store": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

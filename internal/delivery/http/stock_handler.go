package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/internal/service"
	"golang-stock-scorer/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// StockHandler handles HTTP requests for stocks.
type StockHandler struct {
	stockService service.StockService
	logger       *logger.Logger
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockService service.StockService, logger *logger.Logger) *StockHandler {
	return &StockHandler{stockService: stockService, logger: logger}
}

// RegisterRoutes registers the stock routes to the Echo group.
func (h *StockHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListStocks)
	g.DELETE("", h.ClearAll)
	g.POST("/retry-failed", h.RetryFailed)
	g.GET("/:code", h.GetStock)
	g.DELETE("/:code", h.ClearStock)
	g.GET("/:code/history", h.GetHistory)
	g.POST("/:code/favorite", h.ToggleFavorite)
	g.POST("/:code/refresh", h.RefreshStock)
}

// ListStocks godoc
// @Summary List stocks
// @Description List stocks, favorites first then score descending, paginated
// @Tags stocks
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.StockListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks [get]
func (h *StockHandler) ListStocks(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	resp, err := h.stockService.ListStocks(c.Request().Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list stocks", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list stocks"})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStock godoc
// @Summary Get a stock
// @Description Get a single stock by its code
// @Tags stocks
// @Produce json
// @Param code path string true "Stock code"
// @Success 200 {object} dto.StockResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{code} [get]
func (h *StockHandler) GetStock(c echo.Context) error {
	resp, err := h.stockService.GetStock(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Stock not found"})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetHistory godoc
// @Summary Get a stock's score history
// @Description List historical score snapshots for a stock, newest first
// @Tags stocks
// @Produce json
// @Param code path string true "Stock code"
// @Success 200 {array} dto.ScoreHistoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{code}/history [get]
func (h *StockHandler) GetHistory(c echo.Context) error {
	resp, err := h.stockService.GetHistory(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Stock not found"})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// ToggleFavorite godoc
// @Summary Toggle favorite
// @Description Toggle the favorite flag of a stock
// @Tags stocks
// @Produce json
// @Param code path string true "Stock code"
// @Success 200 {object} dto.StockResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{code}/favorite [post]
func (h *StockHandler) ToggleFavorite(c echo.Context) error {
	resp, err := h.stockService.ToggleFavorite(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Stock not found"})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshStock godoc
// @Summary Refresh one stock
// @Description Run the refresh pipeline for a single code, bypassing the freshness window
// @Tags stocks
// @Produce json
// @Param code path string true "Stock code"
// @Success 202 {object} dto.MessageResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{code}/refresh [post]
func (h *StockHandler) RefreshStock(c echo.Context) error {
	err := h.stockService.RefreshOne(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, dto.ErrAlreadyRunning) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Refresh started"})
}

// RetryFailed godoc
// @Summary Retry failed stocks
// @Description Re-run the refresh pipeline over stocks whose last refresh produced no score
// @Tags stocks
// @Produce json
// @Success 202 {object} dto.MessageResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/retry-failed [post]
func (h *StockHandler) RetryFailed(c echo.Context) error {
	queued, err := h.stockService.RetryFailed(c.Request().Context())
	if err != nil {
		if errors.Is(err, dto.ErrAlreadyRunning) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	if queued == 0 {
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "No failed stocks to retry"})
	}
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Retry started"})
}

// ClearStock godoc
// @Summary Clear one stock
// @Description Delete a stock and its score history
// @Tags stocks
// @Produce json
// @Param code path string true "Stock code"
// @Success 204 {object} nil
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks/{code} [delete]
func (h *StockHandler) ClearStock(c echo.Context) error {
	if err := h.stockService.ClearStock(c.Request().Context(), c.Param("code")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Stock not found"})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearAll godoc
// @Summary Clear all stocks
// @Description Delete all stocks and their score history
// @Tags stocks
// @Produce json
// @Success 204 {object} nil
// @Failure 500 {object} dto.ErrorResponse
// @Router /stocks [delete]
func (h *StockHandler) ClearAll(c echo.Context) error {
	if err := h.stockService.ClearAll(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

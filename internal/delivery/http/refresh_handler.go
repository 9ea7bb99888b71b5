package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/internal/repository"
	"golang-stock-scorer/internal/service"
	"golang-stock-scorer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefreshHandler handles HTTP requests for the refresh pipeline.
type RefreshHandler struct {
	coordinator *service.RefreshCoordinator
	runRepo     repository.RefreshRunRepository
	logger      *logger.Logger
}

// NewRefreshHandler creates a new RefreshHandler.
func NewRefreshHandler(coordinator *service.RefreshCoordinator, runRepo repository.RefreshRunRepository, logger *logger.Logger) *RefreshHandler {
	return &RefreshHandler{coordinator: coordinator, runRepo: runRepo, logger: logger}
}

// RegisterRoutes registers the refresh routes to the Echo group.
func (h *RefreshHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.StartRefresh)
	g.DELETE("", h.StopRefresh)
	g.GET("", h.RefreshStatus)
	g.GET("/messages", h.DrainMessages)
	g.GET("/runs", h.ListRuns)
}

// StartRefresh godoc
// @Summary Start a refresh
// @Description Launch a full background refresh; fails if one is already running
// @Tags refresh
// @Produce json
// @Success 202 {object} dto.MessageResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /refresh [post]
func (h *RefreshHandler) StartRefresh(c echo.Context) error {
	if err := h.coordinator.StartAll(); err != nil {
		if errors.Is(err, dto.ErrAlreadyRunning) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Refresh started"})
}

// StopRefresh godoc
// @Summary Stop the running refresh
// @Description Request a cooperative stop; the job finishes its current code first
// @Tags refresh
// @Produce json
// @Success 202 {object} dto.MessageResponse
// @Router /refresh [delete]
func (h *RefreshHandler) StopRefresh(c echo.Context) error {
	h.coordinator.Stop()
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Stop requested"})
}

// RefreshStatus godoc
// @Summary Refresh status
// @Description Report whether a refresh is currently running
// @Tags refresh
// @Produce json
// @Success 200 {object} dto.RefreshStatusResponse
// @Router /refresh [get]
func (h *RefreshHandler) RefreshStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.RefreshStatusResponse{Running: h.coordinator.IsRunning()})
}

// DrainMessages godoc
// @Summary Drain refresh messages
// @Description Return and clear all outcome messages accumulated since the last drain
// @Tags refresh
// @Produce json
// @Success 200 {object} dto.MessagesResponse
// @Router /refresh/messages [get]
func (h *RefreshHandler) DrainMessages(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.MessagesResponse{Messages: h.coordinator.DrainMessages()})
}

// ListRuns godoc
// @Summary List refresh runs
// @Description List the most recent refresh runs, newest first
// @Tags refresh
// @Produce json
// @Param limit query int false "Maximum number of runs"
// @Success 200 {array} entity.RefreshRun
// @Failure 500 {object} dto.ErrorResponse
// @Router /refresh/runs [get]
func (h *RefreshHandler) ListRuns(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.runRepo.FindRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list refresh runs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list refresh runs"})
	}
	return c.JSON(http.StatusOK, runs)
}

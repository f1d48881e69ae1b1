package http

import (
	"net/http"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ModelHandler handles HTTP requests for model maintenance.
type ModelHandler struct {
	modelService service.ModelService
	logger       *logger.Logger
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(modelService service.ModelService, logger *logger.Logger) *ModelHandler {
	return &ModelHandler{modelService: modelService, logger: logger}
}

// RegisterRoutes registers the model routes to the Echo group.
func (h *ModelHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/refit", h.Refit)
	g.GET("/runs", h.ListRuns)
}

// Refit godoc
// @Summary Refit the model
// @Description Start a full batch fit in the background
// @Tags model
// @Produce  json
// @Success 202 {object} dto.RefitResponse
// @Router /model/refit [post]
func (h *ModelHandler) Refit(c echo.Context) error {
	return c.JSON(http.StatusAccepted, h.modelService.Refit(c.Request().Context()))
}

// ListRuns godoc
// @Summary List training runs
// @Description List the latest training runs, newest first
// @Tags model
// @Produce  json
// @Param   limit  query    integer  false  "Maximum number of runs"
// @Success 200 {array} dto.TrainingRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /model/runs [get]
func (h *ModelHandler) ListRuns(c echo.Context) error {
	limit, err := parseLimit(c, "limit", 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	runs, err := h.modelService.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, h.logger, "Failed to list training runs", err)
	}
	return c.JSON(http.StatusOK, runs)
}

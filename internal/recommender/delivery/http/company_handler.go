package http

import (
	"net/http"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CompanyHandler handles HTTP requests for companies.
type CompanyHandler struct {
	companyService service.CompanyService
	logger         *logger.Logger
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService service.CompanyService, logger *logger.Logger) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, logger: logger}
}

// RegisterRoutes registers the company routes to the Echo group.
func (h *CompanyHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/:id/sentiment", h.UpdateSentiment)
}

// UpdateSentiment godoc
// @Summary Update company sentiment
// @Description Replace the aggregate sentiment with the mean of the given scores and alert followers on a large shift
// @Tags companies
// @Accept  json
// @Produce  json
// @Param   id  path    integer  true  "Company ID"
// @Param   request  body    dto.UpdateSentimentRequest  true  "Article scores"
// @Success 200 {object} dto.SentimentUpdateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies/{id}/sentiment [post]
func (h *CompanyHandler) UpdateSentiment(c echo.Context) error {
	companyID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	var req dto.UpdateSentimentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	resp, err := h.companyService.UpdateSentiment(c.Request().Context(), companyID, req.Scores)
	if err != nil {
		return respondError(c, h.logger, "Failed to update sentiment", err)
	}
	return c.JSON(http.StatusOK, resp)
}

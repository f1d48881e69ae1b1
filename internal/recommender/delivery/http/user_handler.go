package http

import (
	"net/http"
	"strings"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests scoped to a user.
type UserHandler struct {
	recommendationService service.RecommendationService
	ledgerService         service.LedgerService
	notificationService   service.NotificationService
	defaultK              int
	logger                *logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	recommendationService service.RecommendationService,
	ledgerService service.LedgerService,
	notificationService service.NotificationService,
	defaultK int,
	logger *logger.Logger,
) *UserHandler {
	return &UserHandler{
		recommendationService: recommendationService,
		ledgerService:         ledgerService,
		notificationService:   notificationService,
		defaultK:              defaultK,
		logger:                logger,
	}
}

// RegisterRoutes registers the user routes to the Echo group.
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateUser)
	g.GET("/:id/recommendations", h.GetRecommendations)
	g.GET("/:id/follows", h.GetFollowed)
	g.POST("/:id/follows/:company_id", h.Follow)
	g.DELETE("/:id/follows/:company_id", h.Unfollow)
	g.GET("/:id/candidates", h.GetCandidates)
	g.GET("/:id/sectors", h.GetSectors)
	g.POST("/:id/sectors/:sector_id", h.AddSector)
	g.DELETE("/:id/sectors/:sector_id", h.RemoveSector)
	g.GET("/:id/notifications", h.GetNotifications)
}

// CreateUser godoc
// @Summary Register a user
// @Description Create a user with the starting readiness counter and optional sector interests
// @Tags users
// @Accept  json
// @Produce  json
// @Param   request  body    dto.CreateUserRequest  true  "User"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
	}

	user, err := h.ledgerService.Register(c.Request().Context(), req.Email, req.Name, req.SectorIDs)
	if err != nil {
		return respondError(c, h.logger, "Failed to register user", err)
	}
	return c.JSON(http.StatusCreated, dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		HardReady: user.HardReady,
		CreatedAt: user.CreatedAt,
	})
}

// GetRecommendations godoc
// @Summary Get recommendations
// @Description Personalized ranking for hard-ready users, sector-overlap ranking otherwise
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Param   k  query    integer  false  "Number of companies"
// @Success 200 {object} dto.RecommendationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/recommendations [get]
func (h *UserHandler) GetRecommendations(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	k, err := parseLimit(c, "k", h.defaultK)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := h.recommendationService.Recommend(c.Request().Context(), userID, k)
	if err != nil {
		return respondError(c, h.logger, "Failed to get recommendations", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetFollowed godoc
// @Summary List followed companies
// @Description List the companies the user follows
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Success 200 {array} dto.CompanyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/follows [get]
func (h *UserHandler) GetFollowed(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	companies, err := h.ledgerService.GetFollowed(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, "Failed to get followed companies", err)
	}
	resp := make([]dto.CompanyResponse, 0, len(companies))
	for _, company := range companies {
		resp = append(resp, dto.CompanyResponse{
			ID:             company.ID,
			Name:           company.Name,
			Sentiment:      company.Sentiment,
			SentimentLabel: service.SentimentLabel(company.Sentiment),
			MarketCap:      company.MarketCap,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) pairIDs(c echo.Context, second string) (uint, uint, error) {
	userID, err := parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	otherID, err := parseID(c, second)
	if err != nil {
		return 0, 0, err
	}
	return userID, otherID, nil
}

func followResponse(userID, companyID uint, res *service.FollowResult) dto.FollowResponse {
	resp := dto.FollowResponse{UserID: userID, CompanyID: companyID, Created: res.Created, Counted: res.Counted}
	if res.Entry != nil {
		resp.State = string(res.Entry.State)
	}
	return resp
}

// Follow godoc
// @Summary Follow a company
// @Description Mark a company as followed; 201 when the ledger entry is new
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Param   company_id  path    integer  true  "Company ID"
// @Success 200 {object} dto.FollowResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/follows/{company_id} [post]
func (h *UserHandler) Follow(c echo.Context) error {
	userID, companyID, err := h.pairIDs(c, "company_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	res, err := h.ledgerService.Follow(c.Request().Context(), userID, companyID)
	if err != nil {
		return respondError(c, h.logger, "Failed to follow company", err)
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, followResponse(userID, companyID, res))
}

// Unfollow godoc
// @Summary Unfollow a company
// @Description Mark a company as unfollowed; the entry is kept as negative feedback
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Param   company_id  path    integer  true  "Company ID"
// @Success 200 {object} dto.FollowResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/follows/{company_id} [delete]
func (h *UserHandler) Unfollow(c echo.Context) error {
	userID, companyID, err := h.pairIDs(c, "company_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	res, err := h.ledgerService.Unfollow(c.Request().Context(), userID, companyID)
	if err != nil {
		return respondError(c, h.logger, "Failed to unfollow company", err)
	}
	return c.JSON(http.StatusOK, followResponse(userID, companyID, res))
}

// GetCandidates godoc
// @Summary List candidates
// @Description List ledger entries that are not active follows
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Success 200 {array} dto.CandidateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/candidates [get]
func (h *UserHandler) GetCandidates(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	entries, err := h.ledgerService.GetCandidates(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, "Failed to get candidates", err)
	}
	resp := make([]dto.CandidateResponse, 0, len(entries))
	for _, e := range entries {
		item := dto.CandidateResponse{CompanyID: e.CompanyID, State: string(e.State), Distance: e.Distance}
		if e.Company != nil {
			item.Name = e.Company.Name
		}
		resp = append(resp, item)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSectors godoc
// @Summary List user sectors
// @Description List the user's sector interests
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Success 200 {array} dto.SectorResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/sectors [get]
func (h *UserHandler) GetSectors(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	sectors, err := h.ledgerService.GetSectors(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, "Failed to get sectors", err)
	}
	resp := make([]dto.SectorResponse, 0, len(sectors))
	for _, s := range sectors {
		resp = append(resp, dto.SectorResponse{ID: s.ID, Name: s.Name})
	}
	return c.JSON(http.StatusOK, resp)
}

// AddSector godoc
// @Summary Add a sector interest
// @Description Add a sector interest
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Param   sector_id  path    integer  true  "Sector ID"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/sectors/{sector_id} [post]
func (h *UserHandler) AddSector(c echo.Context) error {
	userID, sectorID, err := h.pairIDs(c, "sector_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	if err := h.ledgerService.AddSector(c.Request().Context(), userID, sectorID); err != nil {
		return respondError(c, h.logger, "Failed to add sector", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveSector godoc
// @Summary Remove a sector interest
// @Description Remove a sector interest
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Param   sector_id  path    integer  true  "Sector ID"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/sectors/{sector_id} [delete]
func (h *UserHandler) RemoveSector(c echo.Context) error {
	userID, sectorID, err := h.pairIDs(c, "sector_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	if err := h.ledgerService.RemoveSector(c.Request().Context(), userID, sectorID); err != nil {
		return respondError(c, h.logger, "Failed to remove sector", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetNotifications godoc
// @Summary List notifications
// @Description List the user's latest notifications, newest first
// @Tags users
// @Produce  json
// @Param   id  path    integer  true  "User ID"
// @Param   limit  query    integer  false  "Maximum number of notifications"
// @Success 200 {array} dto.NotificationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/notifications [get]
func (h *UserHandler) GetNotifications(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	limit, err := parseLimit(c, "limit", 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	items, err := h.notificationService.ListForUser(c.Request().Context(), userID, limit)
	if err != nil {
		return respondError(c, h.logger, "Failed to get notifications", err)
	}
	return c.JSON(http.StatusOK, items)
}

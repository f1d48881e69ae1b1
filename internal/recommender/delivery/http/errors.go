package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-stock-recommender/internal/recommender/dto"
	"golang-stock-recommender/internal/recommender/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCompanyNotFound),
		errors.Is(err, service.ErrSectorNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrModelConflict),
		errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoScores):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c echo.Context, log *logger.Logger, msg string, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request().Context(), msg, logger.ErrorField(err), logger.StringField("path", c.Path()))
		return c.JSON(status, dto.ErrorResponse{Error: msg})
	}
	return c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}

func parseLimit(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ersonp/lore-chronicle/internal/domain/services"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

type errorResponse struct {
	Message string `json:"message"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrChapterNotFound),
		errors.Is(err, services.ErrCharacterNotFound),
		errors.Is(err, services.ErrRelationshipNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRelationshipExists),
		errors.Is(err, services.ErrStaleTimeline):
		return http.StatusConflict
	case errors.Is(err, services.ErrSelfRelationship),
		errors.Is(err, services.ErrCrossBookRelationship),
		errors.Is(err, services.ErrInvalidRelationType),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidImport),
		errors.Is(err, timeline.ErrInvalidLayout):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Internal errors are logged and hidden
// from the client.
func (s *Server) fail(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		msg = "Internal server error"
	}
	return c.JSON(status, errorResponse{Message: msg})
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request params"})
}

package server

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
)

// formatForContentType maps an upload's media type onto an import format.
var formatForContentType = map[string]string{
	"text/csv":         "csv",
	"application/json": "json",
}

// importRelationships reads a CSV or JSON upload from the request body.
// The format comes from ?format= or, failing that, the Content-Type.
func (s *Server) importRelationships(c echo.Context) error {
	var format, onConflict string
	var dryRun bool
	// The body is the upload itself, so only query params are bound.
	err := echo.QueryParamsBinder(c).
		String("format", &format).
		Bool("dry_run", &dryRun).
		String("on_conflict", &onConflict).
		BindError()
	if err != nil {
		return badRequest(c)
	}

	if format == "" {
		mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
		format = formatForContentType[mediaType]
	}
	strategy, err := services.ParseConflictStrategy(onConflict)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
	}

	result, err := s.handlers.Imports.HandleReader(c.Request().Context(), c.Param("id"), "", c.Request().Body, handlers.ImportOptions{
		Format:     format,
		DryRun:     dryRun,
		OnConflict: strategy,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

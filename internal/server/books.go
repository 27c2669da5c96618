package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type timelineRequest struct {
	BookID string `param:"id" validate:"required"`
	Layout string `query:"layout"`
}

func (s *Server) getTimeline(c echo.Context) error {
	req := new(timelineRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c)
	}

	result, err := s.handlers.Timelines.HandleGet(c.Request().Context(), req.BookID, req.Layout)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) refreshTimeline(c echo.Context) error {
	result, err := s.handlers.Timelines.HandleRefresh(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) listBooks(c echo.Context) error {
	books, err := s.handlers.Story.HandleListBooks(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (s *Server) listCharacters(c echo.Context) error {
	chars, err := s.handlers.Story.HandleListCharacters(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, chars)
}

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
)

type listRelationshipsRequest struct {
	CharacterID string `param:"id" validate:"required"`
	Type        string `query:"type"`
}

func (s *Server) listRelationships(c echo.Context) error {
	req := new(listRelationshipsRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c)
	}

	result, err := s.handlers.Relationships.HandleList(c.Request().Context(), req.CharacterID, handlers.ListOptions{Type: req.Type})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type createRelationshipRequest struct {
	CharacterID        string         `json:"character_id" validate:"required"`
	RelatedCharacterID string         `json:"related_character_id" validate:"required"`
	Type               string         `json:"type" validate:"required"`
	Metadata           map[string]any `json:"metadata"`
}

func (s *Server) createRelationship(c echo.Context) error {
	req := new(createRelationshipRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c)
	}

	rel, err := s.handlers.Relationships.HandleCreate(c.Request().Context(), req.CharacterID, req.Type, req.RelatedCharacterID, req.Metadata)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, rel)
}

type updateRelationshipRequest struct {
	ID       string         `param:"id" validate:"required"`
	Type     *string        `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) updateRelationship(c echo.Context) error {
	req := new(updateRelationshipRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c)
	}

	rel, err := s.handlers.Relationships.HandleUpdate(c.Request().Context(), req.ID, req.Type, req.Metadata)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, rel)
}

func (s *Server) deleteRelationship(c echo.Context) error {
	result, err := s.handlers.Relationships.HandleDelete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if !result.Deleted {
		return c.JSON(http.StatusNotFound, result)
	}
	return c.JSON(http.StatusOK, result)
}

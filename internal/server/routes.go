package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := s.echo.Group("/api")

	// Book routes
	api.GET("/books", s.listBooks)
	api.GET("/books/:id/characters", s.listCharacters)
	api.GET("/books/:id/timeline", s.getTimeline)
	api.POST("/books/:id/timeline/refresh", s.refreshTimeline)
	api.POST("/books/:id/import", s.importRelationships)

	// Relationship routes
	api.GET("/characters/:id/relationships", s.listRelationships)
	api.POST("/relationships", s.createRelationship)
	api.PATCH("/relationships/:id", s.updateRelationship)
	api.DELETE("/relationships/:id", s.deleteRelationship)
}

package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pindrop/pindrop/cmd/server/container"
	"github.com/pindrop/pindrop/cmd/server/handlers"
	"github.com/pindrop/pindrop/cmd/server/middleware"
)

// RegisterPinRoutes registers all pin-related routes
func RegisterPinRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewPinHandler(c.Components, c.Assembler, c.Lifecycle, c.Assets)

	pins := e.Group("/api/v1/pins", middleware.RequireSession(c.UserRepo))
	{
		pins.POST("", h.CreatePin)                     // POST /api/v1/pins
		pins.GET("", h.ListPins)                       // GET /api/v1/pins
		pins.GET("/:id", h.GetPin)                     // GET /api/v1/pins/:id
		pins.DELETE("/:id", h.DeletePin)               // DELETE /api/v1/pins/:id
		pins.PUT("/:id/comments", h.UpdateComments)    // PUT /api/v1/pins/:id/comments
		pins.PUT("/:id/note", h.UpdateNote)            // PUT /api/v1/pins/:id/note
		pins.GET("/:id/tags", h.GetTags)               // GET /api/v1/pins/:id/tags
		pins.PUT("/:id/tags", h.UpdateTags)            // PUT /api/v1/pins/:id/tags
	}
}

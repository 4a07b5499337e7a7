package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// Availability lives under the resource path but is computed by the
	// booking engine.
	g.GET("/resources/:id/availability", authMiddleware, h.Availability)

	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.POST("/:id/check-in", h.CheckIn)
		group.DELETE("/:id", h.Cancel)
	}

	// === Admin Routes ===
	group.PATCH("/:id", adminMiddleware, h.Update)
}

package chat

import (
	"github.com/gin-gonic/gin"

	"hotelbooking/internal/middleware"
)

// RegisterRoutes registers support chat routes under the protected group
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	conv := r.Group("/support/conversations")
	{
		conv.GET("", h.List)
		conv.POST("", h.Open)
		conv.GET("/:id", h.Get)
		conv.GET("/:id/messages", h.Messages)
		conv.POST("/:id/messages", h.PostMessage)
		conv.PATCH("/:id/close", middleware.AdminOnly(), h.Close)
	}
}

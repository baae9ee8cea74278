package media

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes registers media routes. The group must already enforce admin access.
func RegisterAdminRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.POST("/establishments/:id/media", h.UploadEstablishmentMedia)
	admin.DELETE("/establishments/:id/media/:mediaId", h.DeleteEstablishmentMedia)
	admin.POST("/rooms/:id/media", h.UploadRoomMedia)
	admin.DELETE("/rooms/:id/media/:mediaId", h.DeleteRoomMedia)
}

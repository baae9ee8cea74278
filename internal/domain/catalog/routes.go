package catalog

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	establishments := r.Group("/establishments")
	{
		establishments.GET("", h.ListEstablishments)   // GET /api/establishments?city=...&category=...
		establishments.GET("/:id", h.GetEstablishment) // GET /api/establishments/:id
		establishments.GET("/:id/rooms", h.ListRooms)  // GET /api/establishments/:id/rooms
	}

	r.GET("/rooms/:id", h.GetRoom)
	r.GET("/reservation/get", h.GetRoomForReservation)
}

// RegisterAdminRoutes expects a group already guarded by JWTAuth and AdminOnly.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/establishments", h.CreateEstablishment)
	r.PUT("/establishments/:id", h.UpdateEstablishment)
	r.DELETE("/establishments/:id", h.DeleteEstablishment)
	r.POST("/establishments/:id/rooms", h.CreateRoom)

	r.PUT("/rooms/:id", h.UpdateRoom)
	r.PATCH("/rooms/:id/availability", h.SetRoomAvailability)
	r.DELETE("/rooms/:id", h.DeleteRoom)
}

package reservation

import "github.com/gin-gonic/gin"

// RegisterRoutes expects a group guarded by JWTAuth.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reservation/create", h.CreateFromForm)

	reservations := r.Group("/reservations")
	{
		reservations.GET("", h.Get)                                   // GET /api/reservations?id=... | ?userId=...
		reservations.POST("", h.Create)                               // POST /api/reservations
		reservations.GET("/clientReservations", h.ClientReservations) // GET /api/reservations/clientReservations
		reservations.PATCH("/:id/status", h.ChangeStatus)             // PATCH /api/reservations/:id/status
	}
}

// RegisterPublicRoutes exposes read-only availability checks.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/rooms/:id/availability", h.Availability)
}

package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

/* ---------- PUBLIC ---------- */

// ListEstablishments GET /api/establishments
func (h *Handler) ListEstablishments(c *gin.Context) {
	var f EstablishmentFilters
	f.City = c.Query("city")
	f.Country = c.Query("country")
	f.Category = Category(c.Query("category"))
	f.Search = c.Query("search")
	f.SortBy = c.DefaultQuery("sort_by", "name")
	f.SortOrder = c.DefaultQuery("sort_order", "asc")
	f.MinPrice = queryFloat(c, "min_price")
	f.MaxPrice = queryFloat(c, "max_price")
	f.MinCapacity = queryInt(c, "min_capacity", 0)
	f.MinStars = queryInt(c, "min_stars", 0)

	f.Limit = queryInt(c, "limit", defaultPageSize)
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = defaultPageSize
	}
	if page := queryInt(c, "page", 1); page > 1 {
		f.Offset = (page - 1) * f.Limit
	}

	items, total, err := h.service.ListEstablishments(c.Request.Context(), f)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"establishments": items,
		"pagination": gin.H{
			"page":        f.Offset/f.Limit + 1,
			"limit":       f.Limit,
			"total":       total,
			"total_pages": (int(total) + f.Limit - 1) / f.Limit,
		},
	})
}

// GetEstablishment GET /api/establishments/:id
func (h *Handler) GetEstablishment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetEstablishment(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"establishment": e})
}

// ListRooms GET /api/establishments/:id/rooms
func (h *Handler) ListRooms(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rooms, err := h.service.ListRooms(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoom GET /api/rooms/:id
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.writeRoom(c, id)
}

// GetRoomForReservation GET /api/reservation/get?room=<id>
func (h *Handler) GetRoomForReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("room"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant de chambre invalide")
		return
	}
	h.writeRoom(c, id)
}

func (h *Handler) writeRoom(c *gin.Context, id int64) {
	room, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room": room})
}

/* ---------- ADMIN ---------- */

func (h *Handler) CreateEstablishment(c *gin.Context) {
	var req CreateEstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	p, _ := middleware.CurrentPrincipal(c)

	e, err := h.service.CreateEstablishment(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"establishment": e})
}

func (h *Handler) UpdateEstablishment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateEstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	e, err := h.service.UpdateEstablishment(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"establishment": e})
}

func (h *Handler) DeleteEstablishment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteEstablishment(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) CreateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"room": room})
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	room, err := h.service.UpdateRoom(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room": room})
}

func (h *Handler) SetRoomAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "available is required")
		return
	}
	if err := h.service.SetRoomAvailability(c.Request.Context(), id, *req.Available); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "available": *req.Available})
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRoom(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

/* ---------- HELPERS ---------- */

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", verr.Fields)
	case errors.Is(err, ErrEstablishmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Establishment not found")
	case errors.Is(err, ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Room not found")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	default:
		_ = c.Error(err)
		h.log.Error("catalog request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

func queryFloat(c *gin.Context, key string) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return 0
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

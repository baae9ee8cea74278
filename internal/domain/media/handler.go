package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/pkg/response"
)

// Handler handles admin media uploads. Files are sent as multipart field "file".
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// UploadEstablishmentMedia godoc
// @Summary Upload an image or video for an establishment
// @Tags Media
// @Accept multipart/form-data
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Router /admin/establishments/{id}/media [post]
func (h *Handler) UploadEstablishmentMedia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}
	m, err := h.service.UploadEstablishmentMedia(c.Request.Context(), id, fh)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

// UploadRoomMedia godoc
// @Summary Upload an image or video for a room
// @Tags Media
// @Accept multipart/form-data
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Router /admin/rooms/{id}/media [post]
func (h *Handler) UploadRoomMedia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}
	m, err := h.service.UploadRoomMedia(c.Request.Context(), id, fh)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) DeleteEstablishmentMedia(c *gin.Context) {
	parentID, ok := parseID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("mediaId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid media id")
		return
	}
	if err := h.service.DeleteEstablishmentMedia(c.Request.Context(), parentID, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteRoomMedia(c *gin.Context) {
	parentID, ok := parseID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("mediaId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid media id")
		return
	}
	if err := h.service.DeleteRoomMedia(c.Request.Context(), parentID, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrInvalidMimeType):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		h.log.Error("media request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Upload failed")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

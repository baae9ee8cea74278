package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
)

// Handler handles HTTP requests for support conversations
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type openRequest struct {
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message"`
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Open godoc
// @Summary Open a support conversation
// @Tags Support
// @Security BearerAuth
// @Router /support/conversations [post]
func (h *Handler) Open(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	conv, err := h.service.Open(c.Request.Context(), p, req.Subject, req.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, conv)
}

// List godoc
// @Summary List support conversations
// @Tags Support
// @Security BearerAuth
// @Param status query string false "open or closed"
// @Param userId query int false "Admin only: filter by user"
// @Router /support/conversations [get]
func (h *Handler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	status := ConversationStatus(c.Query("status"))
	if status != "" && status != StatusOpen && status != StatusClosed {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be open or closed")
		return
	}

	var userID *int64
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid userId")
			return
		}
		userID = &id
	}

	limit, offset := paging(c)
	items, total, err := h.service.List(c.Request.Context(), p, userID, status, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}
	conv, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

// Messages godoc
// @Summary Read messages of a conversation
// @Tags Support
// @Security BearerAuth
// @Param limit query int false "Limit (default 50)"
// @Param offset query int false "Offset"
// @Router /support/conversations/{id}/messages [get]
func (h *Handler) Messages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}
	limit, offset := paging(c)
	msgs, err := h.service.Messages(c.Request.Context(), p, id, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, msgs)
}

func (h *Handler) PostMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	msg, err := h.service.PostMessage(c.Request.Context(), p, id, req.Content)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

func (h *Handler) Close(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}
	conv, err := h.service.Close(c.Request.Context(), p, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidContent), errors.Is(err, ErrInvalidSubject):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrConversationClosed):
		response.Error(c, http.StatusConflict, "CONVERSATION_CLOSED", "Conversation is closed")
	default:
		h.log.Error("support chat request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return p, ok
}

func conversationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid conversation id")
		return uuid.Nil, false
	}
	return id, true
}

func paging(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}

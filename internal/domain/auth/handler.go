package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register godoc
// @Summary Register a client account
// @Tags Auth
// @Accept json
// @Produce json
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	h.register(c, false)
}

// Upgrade registers the current anonymous session as a real account.
func (h *Handler) Upgrade(c *gin.Context) {
	h.register(c, true)
}

func (h *Handler) register(c *gin.Context, upgrade bool) {
	var req RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var caller *domain.Principal
	status := http.StatusCreated
	if upgrade {
		p, ok := middleware.CurrentPrincipal(c)
		if !ok || !p.Anonymous {
			response.Error(c, http.StatusConflict, "NOT_ANONYMOUS", "Only anonymous sessions can be upgraded")
			return
		}
		caller = &p
		status = http.StatusOK
	}

	session, err := h.service.Register(c.Request.Context(), req, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, status, sessionBody(session))
}

// Login godoc
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sessionBody(session))
}

// Anonymous godoc
// @Summary Start an anonymous session
// @Description Creates a temporary client account that is purged after a grace period.
// @Tags Auth
// @Produce json
// @Router /auth/anonymous [post]
func (h *Handler) Anonymous(c *gin.Context) {
	session, err := h.service.StartAnonymousSession(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sessionBody(session))
}

// GetMe returns the current user.
func (h *Handler) GetMe(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.service.Me(c.Request.Context(), p.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", verr.Fields)
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
	case errors.Is(err, ErrAccountLocked):
		response.Error(c, http.StatusForbidden, "ACCOUNT_LOCKED", "Account is temporarily locked")
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		h.log.Error("auth request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func sessionBody(s *Session) gin.H {
	return gin.H{
		"user": s.User,
		"tokens": gin.H{
			"access_token": s.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   int64(s.ExpiresIn.Seconds()),
		},
	}
}

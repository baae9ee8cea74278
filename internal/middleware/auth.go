package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/response"
)

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxAnonymous = "anonymous"
)

// JWTAuth requires a valid "Authorization: Bearer <token>" header and stores
// the caller identity on the gin context.
func JWTAuth(j *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must use Bearer scheme")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Empty token")
			return
		}

		claims, err := j.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		SetPrincipal(c, domain.Principal{
			UserID:    claims.UserID,
			Role:      domain.UserRole(claims.Role),
			Anonymous: claims.Anonymous,
		})
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(ctxUserID, p.UserID)
	c.Set(ctxRole, string(p.Role))
	c.Set(ctxAnonymous, p.Anonymous)
}

// CurrentPrincipal returns the caller set by JWTAuth. ok is false on routes
// that are not behind JWTAuth.
func CurrentPrincipal(c *gin.Context) (domain.Principal, bool) {
	userID := c.GetInt64(ctxUserID)
	if userID == 0 {
		return domain.Principal{}, false
	}
	return domain.Principal{
		UserID:    userID,
		Role:      domain.UserRole(c.GetString(ctxRole)),
		Anonymous: c.GetBool(ctxAnonymous),
	}, true
}

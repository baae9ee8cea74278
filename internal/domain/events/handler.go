package events

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/response"
)

// Handler upgrades authenticated requests to the reservation feed.
// Browsers cannot set headers on a websocket handshake, so the JWT comes in ?token=.
type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler only upgrades browser requests whose Origin is in allowedOrigins.
// Clients that send no Origin header (CLIs, servers) are accepted.
func NewHandler(hub *Hub, j *jwt.Service, allowedOrigins []string, log *zap.Logger) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return &Handler{
		hub: hub,
		jwt: j,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *Handler) Reservations(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	p := domain.Principal{UserID: claims.UserID, Role: domain.UserRole(claims.Role), Anonymous: claims.Anonymous}
	h.log.Debug("reservation feed connected", zap.Int64("user_id", p.UserID), zap.String("role", string(p.Role)))
	h.hub.ServeWS(conn, p)
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/reservations", h.Reservations)
}

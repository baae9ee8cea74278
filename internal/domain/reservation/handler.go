package reservation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"
)

const (
	EventCreated       = "reservation.created"
	EventStatusChanged = "reservation.status_changed"
)

type Handler struct {
	service  *Service
	notifier Notifier
	log      *zap.Logger
}

func NewHandler(service *Service, notifier Notifier, log *zap.Logger) *Handler {
	return &Handler{service: service, notifier: notifier, log: log}
}

// CreateFromForm POST /api/reservation/create (multipart: reservation, room)
func (h *Handler) CreateFromForm(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Vous devez être connecté pour réserver")
		return
	}

	var form reservationForm
	if err := json.Unmarshal([]byte(c.PostForm("reservation")), &form); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Le champ reservation est invalide")
		return
	}
	var room roomForm
	if err := json.Unmarshal([]byte(c.PostForm("room")), &room); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Le champ room est invalide")
		return
	}
	if fields := mergeFields(validator.Validate(form), validator.Validate(room)); len(fields) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Données de réservation invalides", fields)
		return
	}
	if !form.AcceptCGV {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Vous devez accepter les conditions générales de vente")
		return
	}

	checkIn, err1 := parseDate(form.CheckIn)
	checkOut, err2 := parseDate(form.CheckOut)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Format de date invalide")
		return
	}

	userID := p.UserID
	res, err := h.service.RequestReservation(c.Request.Context(), CreateInput{
		RoomID:          room.RoomID,
		EstablishmentID: room.EtablissementID,
		StartDate:       checkIn,
		EndDate:         checkOut,
		Guests:          form.Guests,
		UserID:          &userID,
		Contact: Contact{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Phone:     form.Phone,
		},
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	if room.RoomPrix > 0 && room.RoomPrix != res.TotalPrice/float64(res.Nights()) {
		h.log.Debug("client price differs from stored price",
			zap.Int64("room_id", room.RoomID),
			zap.Float64("client_price", room.RoomPrix),
		)
	}

	h.notify(res, EventCreated)
	response.SuccessWithMessage(c, http.StatusCreated, "Réservation créée avec succès", gin.H{
		"reservation": toCreated(res),
	})
}

// Create POST /api/reservations
func (h *Handler) Create(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Corps de requête invalide")
		return
	}
	if fields := validator.Validate(req); len(fields) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Données de réservation invalides", fields)
		return
	}
	start, err1 := parseDate(req.StartDate)
	end, err2 := parseDate(req.EndDate)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Format de date invalide")
		return
	}

	in := CreateInput{
		RoomID:          req.RoomID,
		EstablishmentID: req.EstablishmentID,
		StartDate:       start,
		EndDate:         end,
		Guests:          req.Guests,
		Contact: Contact{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
	}
	userID := p.UserID
	in.UserID = &userID
	if p.IsAdmin() {
		in.Status = req.Status
		if req.UserID != nil {
			in.UserID = req.UserID
		}
	}

	res, err := h.service.RequestReservation(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.notify(res, EventCreated)
	response.SuccessWithMessage(c, http.StatusCreated, "Réservation créée avec succès", gin.H{
		"reservation": res,
	})
}

// Get GET /api/reservations?id=<uuid> or ?userId=<id>
func (h *Handler) Get(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)

	if raw := c.Query("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant de réservation invalide")
			return
		}
		res, err := h.service.GetReservation(c.Request.Context(), p, id)
		if err != nil {
			h.handleError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"reservation": res})
		return
	}

	userID := p.UserID
	if raw := c.Query("userId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant utilisateur invalide")
			return
		}
		userID = v
	}

	rows, err := h.service.ListReservations(c.Request.Context(), p, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": rows})
}

// ClientReservations GET /api/reservations/clientReservations
func (h *Handler) ClientReservations(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)

	rows, err := h.service.ListReservationsForUser(c.Request.Context(), p.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": rows})
}

// ChangeStatus PATCH /api/reservations/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant de réservation invalide")
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Le statut est requis")
		return
	}

	res, err := h.service.ChangeStatus(c.Request.Context(), p, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.notify(res, EventStatusChanged)
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

// Availability GET /api/rooms/:id/availability?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) Availability(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || roomID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant de chambre invalide")
		return
	}
	start, err1 := parseDate(c.Query("start"))
	end, err2 := parseDate(c.Query("end"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Paramètres start et end requis (YYYY-MM-DD)")
		return
	}

	available, conflicts, err := h.service.CheckAvailability(c.Request.Context(), roomID, start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"room_id":   roomID,
		"start":     start.Format("2006-01-02"),
		"end":       end.Format("2006-01-02"),
		"available": available,
		"conflicts": conflicts,
	})
}

func (h *Handler) notify(res *Reservation, event string) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(res.UserID, event, gin.H{
		"id":               res.ID,
		"room_id":          res.RoomID,
		"establishment_id": res.EstablishmentID,
		"start_date":       res.StartDate.Format("2006-01-02"),
		"end_date":         res.EndDate.Format("2006-01-02"),
		"status":           res.Status,
		"total_price":      res.TotalPrice,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Données de réservation invalides", verr.Fields)
	case errors.Is(err, ErrInvalidDateRange):
		response.Error(c, http.StatusBadRequest, "INVALID_DATE_RANGE",
			"La date de départ doit être postérieure à la date d'arrivée et l'arrivée ne peut pas être passée")
	case errors.Is(err, ErrCapacityExceeded):
		response.Error(c, http.StatusBadRequest, "CAPACITY_EXCEEDED", "Le nombre de voyageurs dépasse la capacité de la chambre")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Ressource introuvable")
	case errors.Is(err, ErrRoomUnavailable):
		response.Error(c, http.StatusConflict, "ROOM_UNAVAILABLE", "La chambre n'est pas disponible pour ces dates")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Transition de statut invalide")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Accès refusé")
	default:
		_ = c.Error(err)
		h.log.Error("reservation request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Une erreur interne est survenue")
	}
}

func mergeFields(maps ...map[string]string) map[string]string {
	var out map[string]string
	for _, m := range maps {
		for k, v := range m {
			if out == nil {
				out = make(map[string]string)
			}
			out[k] = v
		}
	}
	return out
}

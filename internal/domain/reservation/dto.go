package reservation

import (
	"fmt"
	"strings"
	"time"
)

// reservationForm is the "reservation" JSON field of the booking form.
type reservationForm struct {
	FirstName string `json:"firstName" validate:"required,max=128"`
	LastName  string `json:"lastName" validate:"required,max=128"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,max=32"`
	CheckIn   string `json:"checkIn" validate:"required"`
	CheckOut  string `json:"checkOut" validate:"required"`
	Guests    int    `json:"guests" validate:"required,gte=1"`
	AcceptCGV bool   `json:"acceptCGV"`
}

// roomForm is the "room" JSON field of the booking form. RoomPrix is what the
// client displayed; the stored price is authoritative.
type roomForm struct {
	RoomID          int64   `json:"roomId" validate:"required,gt=0"`
	EtablissementID int64   `json:"etablissementId" validate:"required,gt=0"`
	RoomPrix        float64 `json:"roomPrix"`
}

type CreateReservationRequest struct {
	RoomID          int64  `json:"roomId" validate:"required,gt=0"`
	EstablishmentID int64  `json:"etablissementId" validate:"required,gt=0"`
	StartDate       string `json:"startDate" validate:"required"`
	EndDate         string `json:"endDate" validate:"required"`
	Guests          int    `json:"guests" validate:"required,gte=1"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone"`
	// Status and UserID are honoured for admins only.
	Status Status `json:"status,omitempty"`
	UserID *int64 `json:"userId,omitempty"`
}

type ChangeStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type CreatedReservation struct {
	ID         string  `json:"id"`
	TotalPrice float64 `json:"total_price"`
	Status     Status  `json:"status"`
	Nights     int     `json:"nights"`
}

func toCreated(r *Reservation) CreatedReservation {
	return CreatedReservation{
		ID:         r.ID.String(),
		TotalPrice: r.TotalPrice,
		Status:     r.Status,
		Nights:     r.Nights(),
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// parseDate accepts a plain calendar date or a timestamp and keeps only the
// calendar day.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

package reservation

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hotelbooking/internal/domain/catalog"
)

type Status string

const (
	StatusPending   Status = "en_attente"
	StatusConfirmed Status = "confirmee"
	StatusCancelled Status = "annulee"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// CanTransition reports whether a reservation may move from one status to
// another. Cancelled is terminal.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reservation covers the nights in [StartDate, EndDate). Both dates are
// stored at UTC midnight.
type Reservation struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          *int64     `json:"user_id,omitempty" gorm:"index"`
	RoomID          int64      `json:"room_id" gorm:"not null;index:idx_reservation_room_dates,priority:1"`
	EstablishmentID int64      `json:"establishment_id" gorm:"not null;index"`
	StartDate       time.Time  `json:"start_date" gorm:"type:date;not null;index:idx_reservation_room_dates,priority:2"`
	EndDate         time.Time  `json:"end_date" gorm:"type:date;not null;index:idx_reservation_room_dates,priority:3"`
	Guests          int        `json:"guests" gorm:"not null"`
	TotalPrice      float64    `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Status          Status     `json:"status" gorm:"type:varchar(16);not null;index"`
	FirstName       string     `json:"first_name,omitempty" gorm:"type:varchar(128)"`
	LastName        string     `json:"last_name,omitempty" gorm:"type:varchar(128)"`
	Email           string     `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone           string     `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`

	Room          *catalog.Room          `json:"-" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	Establishment *catalog.Establishment `json:"-" gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE"`
}

func (Reservation) TableName() string { return "reservation" }

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Reservation) Nights() int {
	return nightsBetween(r.StartDate, r.EndDate)
}

// Summary is the denormalized row shown in a guest's reservation list.
type Summary struct {
	ID                uuid.UUID `json:"id" gorm:"column:id"`
	Status            Status    `json:"status" gorm:"column:status"`
	StartDate         time.Time `json:"start_date" gorm:"column:start_date"`
	EndDate           time.Time `json:"end_date" gorm:"column:end_date"`
	Guests            int       `json:"guests" gorm:"column:guests"`
	Nights            int       `json:"nights" gorm:"-"`
	TotalPrice        float64   `json:"total_price" gorm:"column:total_price"`
	RoomID            int64     `json:"room_id" gorm:"column:room_id"`
	RoomName          string    `json:"room_name" gorm:"column:room_name"`
	EstablishmentID   int64     `json:"establishment_id" gorm:"column:establishment_id"`
	EstablishmentName string    `json:"establishment_name" gorm:"column:establishment_name"`
	EstablishmentCity string    `json:"establishment_city" gorm:"column:establishment_city"`
	ImageURL          string    `json:"image_url,omitempty" gorm:"column:image_url"`
}

// BusyRange is an existing live reservation blocking part of a request.
type BusyRange struct {
	ReservationID uuid.UUID `json:"reservation_id" gorm:"column:id"`
	Start         time.Time `json:"start" gorm:"column:start_date"`
	End           time.Time `json:"end" gorm:"column:end_date"`
	Status        Status    `json:"status" gorm:"column:status"`
}

func Models() []any {
	return []any{&Reservation{}}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nightsBetween counts calendar days between two dates, never less than one.
func nightsBetween(start, end time.Time) int {
	days := int(math.Ceil(dateOnly(end).Sub(dateOnly(start)).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

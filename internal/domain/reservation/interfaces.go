package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hotelbooking/internal/domain/catalog"
)

type ReservationRepository interface {
	// CreateIfAvailable inserts r unless a live reservation of the same room
	// overlaps it. The check and the insert share one transaction.
	CreateIfAvailable(ctx context.Context, r *Reservation) error
	FindConflicts(ctx context.Context, roomID int64, start, end time.Time) ([]BusyRange, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListSummariesByUser(ctx context.Context, userID int64) ([]Summary, error)
	// UpdateStatus moves id from one status to another and fails with
	// ErrInvalidTransition if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error
}

type RoomReader interface {
	GetRoomByID(ctx context.Context, id int64) (*catalog.Room, error)
}

// Notifier pushes live events to connected clients. userID may be nil for
// reservations made without an account.
type Notifier interface {
	Notify(userID *int64, event string, payload any)
}

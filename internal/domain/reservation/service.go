package reservation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/pkg/lock"
)

// Contact identifies a guest booking without an account.
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (c Contact) complete() bool {
	return strings.TrimSpace(c.FirstName) != "" &&
		strings.TrimSpace(c.LastName) != "" &&
		strings.TrimSpace(c.Email) != ""
}

type CreateInput struct {
	RoomID          int64
	EstablishmentID int64
	StartDate       time.Time
	EndDate         time.Time
	Guests          int
	UserID          *int64
	Contact         Contact
	// Status defaults to pending. Only the admin entry point passes confirmed.
	Status Status
}

type Service struct {
	reservations ReservationRepository
	rooms        RoomReader
	locker       lock.Locker
	log          *zap.Logger
	now          func() time.Time
}

func NewService(reservations ReservationRepository, rooms RoomReader, locker lock.Locker, log *zap.Logger) *Service {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		reservations: reservations,
		rooms:        rooms,
		locker:       locker,
		log:          log,
		now:          time.Now,
	}
}

// WithClock replaces the time source used for "today" checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RequestReservation validates the stay, prices it and stores it. Either the
// reservation is written in full or nothing is.
func (s *Service) RequestReservation(ctx context.Context, in CreateInput) (*Reservation, error) {
	start, end := dateOnly(in.StartDate), dateOnly(in.EndDate)
	if !end.After(start) {
		return nil, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidDateRange)
	}
	if start.Before(dateOnly(s.now())) {
		return nil, fmt.Errorf("%w: check-in is in the past", ErrInvalidDateRange)
	}
	if in.Guests < 1 {
		return nil, invalid("guests", "must be at least 1")
	}
	if in.UserID == nil && !in.Contact.complete() {
		return nil, invalid("contact", "first name, last name and email are required")
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if status != StatusPending && status != StatusConfirmed {
		return nil, invalid("status", "initial status must be pending or confirmed")
	}

	room, err := s.rooms.GetRoomByID(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: room %d", ErrNotFound, in.RoomID)
		}
		return nil, fmt.Errorf("load room %d: %w", in.RoomID, err)
	}
	if in.EstablishmentID != 0 && in.EstablishmentID != room.EstablishmentID {
		return nil, invalid("establishment_id", "room does not belong to this establishment")
	}
	if !room.Available {
		return nil, fmt.Errorf("%w: room %d is closed for booking", ErrRoomUnavailable, room.ID)
	}
	if in.Guests > room.Capacity {
		return nil, fmt.Errorf("%w: %d guests, capacity %d", ErrCapacityExceeded, in.Guests, room.Capacity)
	}

	nights := nightsBetween(start, end)
	total := math.Round(room.Price*float64(nights)*100) / 100

	res := &Reservation{
		UserID:          in.UserID,
		RoomID:          room.ID,
		EstablishmentID: room.EstablishmentID,
		StartDate:       start,
		EndDate:         end,
		Guests:          in.Guests,
		TotalPrice:      total,
		Status:          status,
		FirstName:       strings.TrimSpace(in.Contact.FirstName),
		LastName:        strings.TrimSpace(in.Contact.LastName),
		Email:           strings.TrimSpace(in.Contact.Email),
		Phone:           strings.TrimSpace(in.Contact.Phone),
	}

	release, err := s.locker.Lock(ctx, roomLockKey(room.ID))
	if err != nil {
		return nil, fmt.Errorf("lock room %d: %w", room.ID, err)
	}
	defer release()

	if err := s.reservations.CreateIfAvailable(ctx, res); err != nil {
		if errors.Is(err, ErrRoomUnavailable) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.log.Info("reservation created",
		zap.String("reservation_id", res.ID.String()),
		zap.Int64("room_id", res.RoomID),
		zap.Int("nights", nights),
		zap.Float64("total_price", res.TotalPrice),
	)
	return res, nil
}

// CheckAvailability reports whether the room is free for [start, end) and
// lists the live reservations in the way.
func (s *Service) CheckAvailability(ctx context.Context, roomID int64, start, end time.Time) (bool, []BusyRange, error) {
	start, end = dateOnly(start), dateOnly(end)
	if !end.After(start) {
		return false, nil, fmt.Errorf("%w: end must be after start", ErrInvalidDateRange)
	}

	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return false, nil, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		return false, nil, err
	}

	conflicts, err := s.reservations.FindConflicts(ctx, roomID, start, end)
	if err != nil {
		return false, nil, err
	}
	if conflicts == nil {
		conflicts = []BusyRange{}
	}
	return room.Available && len(conflicts) == 0, conflicts, nil
}

func (s *Service) ListReservationsForUser(ctx context.Context, userID int64) ([]Summary, error) {
	rows, err := s.reservations.ListSummariesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Summary{}
	}
	return rows, nil
}

// ListReservations lists another user's reservations only for admins.
func (s *Service) ListReservations(ctx context.Context, p domain.Principal, userID int64) ([]Summary, error) {
	if userID != p.UserID && !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.ListReservationsForUser(ctx, userID)
}

func (s *Service) GetReservation(ctx context.Context, p domain.Principal, id uuid.UUID) (*Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Owns(res.UserID) {
		return nil, ErrForbidden
	}
	return res, nil
}

// ChangeStatus applies a state-machine transition. Guests may only cancel
// their own reservations; admins may confirm or cancel any.
func (s *Service) ChangeStatus(ctx context.Context, p domain.Principal, id uuid.UUID, to Status) (*Reservation, error) {
	if !to.Valid() {
		return nil, invalid("status", "unknown status")
	}

	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		if !p.Owns(res.UserID) || to != StatusCancelled {
			return nil, ErrForbidden
		}
	}
	if !CanTransition(res.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, to)
	}

	at := s.now().UTC()
	if err := s.reservations.UpdateStatus(ctx, id, res.Status, to, at); err != nil {
		return nil, err
	}

	s.log.Info("reservation status changed",
		zap.String("reservation_id", id.String()),
		zap.String("from", string(res.Status)),
		zap.String("to", string(to)),
		zap.Int64("by_user", p.UserID),
	)

	res.Status = to
	res.UpdatedAt = at
	if to == StatusCancelled {
		res.CancelledAt = &at
	}
	return res, nil
}

func roomLockKey(roomID int64) string {
	return "reservation:room:" + strconv.FormatInt(roomID, 10)
}

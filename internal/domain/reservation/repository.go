package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain/catalog"
)

const pgExclusionViolation = "23P01"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func overlapping(db *gorm.DB, roomID int64, start, end time.Time) *gorm.DB {
	return db.Model(&Reservation{}).
		Where("room_id = ?", roomID).
		Where("status <> ?", StatusCancelled).
		Where("start_date < ? AND end_date > ?", end, start)
}

func (r *Repository) CreateIfAvailable(ctx context.Context, res *Reservation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on PostgreSQL; SQLite ignores the clause and serializes writers.
		var room catalog.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", res.RoomID).
			Take(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var n int64
		if err := overlapping(tx, res.RoomID, res.StartDate, res.EndDate).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrRoomUnavailable
		}

		if err := tx.Omit(clause.Associations).Create(res).Error; err != nil {
			if isOverlapViolation(err) {
				return ErrRoomUnavailable
			}
			return err
		}
		return nil
	})
}

func (r *Repository) FindConflicts(ctx context.Context, roomID int64, start, end time.Time) ([]BusyRange, error) {
	var out []BusyRange
	err := overlapping(r.db.WithContext(ctx), roomID, start, end).
		Select("id", "start_date", "end_date", "status").
		Order("start_date ASC").
		Scan(&out).Error
	return out, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var res Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListSummariesByUser joins room, establishment and the oldest media row
// (room media first, then establishment media).
func (r *Repository) ListSummariesByUser(ctx context.Context, userID int64) ([]Summary, error) {
	const q = `
		SELECT
			r.id,
			r.status,
			r.start_date,
			r.end_date,
			r.guests,
			r.total_price,
			r.room_id,
			c.name AS room_name,
			r.establishment_id,
			e.name AS establishment_name,
			e.city AS establishment_city,
			COALESCE(
				(SELECT mc.url FROM media_chambre mc WHERE mc.room_id = r.room_id ORDER BY mc.created_at ASC LIMIT 1),
				(SELECT me.url FROM media_etablissement me WHERE me.establishment_id = r.establishment_id ORDER BY me.created_at ASC LIMIT 1),
				''
			) AS image_url
		FROM reservation r
		JOIN chambre c ON c.id = r.room_id
		JOIN etablissement e ON e.id = r.establishment_id
		WHERE r.user_id = ?
		ORDER BY r.start_date ASC, r.created_at ASC
	`

	var rows []Summary
	if err := r.db.WithContext(ctx).Raw(q, userID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Nights = nightsBetween(rows[i].StartDate, rows[i].EndDate)
	}
	return rows, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if to == StatusCancelled {
		updates["cancelled_at"] = at
	}

	res := r.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		if isOverlapViolation(res.Error) {
			return ErrRoomUnavailable
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == database.NoOverlapConstraint
}

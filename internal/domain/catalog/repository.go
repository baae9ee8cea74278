package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

/* ---------- ESTABLISHMENTS ---------- */

// ListEstablishments returns establishments with optional filters, their
// available rooms and media ordered oldest first.
func (r *Repository) ListEstablishments(ctx context.Context, f EstablishmentFilters) ([]Establishment, int64, error) {
	var items []Establishment
	var total int64

	q := r.db.WithContext(ctx).Model(&Establishment{})

	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.Country != "" {
		q = q.Where("LOWER(country) = ?", strings.ToLower(f.Country))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinStars > 0 {
		q = q.Where("stars >= ?", f.MinStars)
	}

	// Room criteria go through a subquery so one establishment never appears twice.
	if f.MinPrice > 0 || f.MaxPrice > 0 || f.MinCapacity > 0 {
		sub := r.db.Model(&Room{}).Select("establishment_id").Where("available = ?", true)
		if f.MinPrice > 0 {
			sub = sub.Where("price >= ?", f.MinPrice)
		}
		if f.MaxPrice > 0 {
			sub = sub.Where("price <= ?", f.MaxPrice)
		}
		if f.MinCapacity > 0 {
			sub = sub.Where("capacity >= ?", f.MinCapacity)
		}
		q = q.Where("id IN (?)", sub)
	}

	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(city) LIKE ?)", like, like)
	}

	sortOrder := strings.ToLower(strings.TrimSpace(f.SortOrder))
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}
	var orderExpr string
	switch strings.ToLower(strings.TrimSpace(f.SortBy)) {
	case "stars":
		orderExpr = "stars"
	case "price":
		orderExpr = "(SELECT MIN(price) FROM chambre WHERE chambre.establishment_id = etablissement.id AND available = true)"
	case "created":
		orderExpr = "created_at"
	default:
		orderExpr = "name"
	}
	q = q.Order(orderExpr + " " + strings.ToUpper(sortOrder)).Order("id ASC")

	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("Rooms", "available = ?", true).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range items {
		if len(items[i].Media) > 0 {
			items[i].CoverURL = items[i].Media[0].URL
		}
	}
	return items, total, nil
}

func (r *Repository) GetEstablishmentByID(ctx context.Context, id int64) (*Establishment, error) {
	var e Establishment
	err := r.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Rooms.Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEstablishmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(e.Media) > 0 {
		e.CoverURL = e.Media[0].URL
	}
	return &e, nil
}

func (r *Repository) EstablishmentExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Establishment{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateEstablishment(ctx context.Context, e *Establishment) error {
	return r.db.WithContext(ctx).Omit("Rooms", "Media").Create(e).Error
}

func (r *Repository) UpdateEstablishment(ctx context.Context, e *Establishment) error {
	return r.db.WithContext(ctx).Omit("Rooms", "Media", "CreatedAt").Save(e).Error
}

// DeleteEstablishment removes the establishment with its reservations, rooms
// and media in one transaction. It returns the file paths of removed media.
func (r *Repository) DeleteEstablishment(ctx context.Context, id int64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Establishment{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrEstablishmentNotFound
		}

		roomIDs := tx.Model(&Room{}).Select("id").Where("establishment_id = ?", id)

		var roomFiles, estFiles []string
		if err := tx.Model(&RoomMedia{}).Where("room_id IN (?)", roomIDs).Pluck("file_path", &roomFiles).Error; err != nil {
			return err
		}
		if err := tx.Model(&EstablishmentMedia{}).Where("establishment_id = ?", id).Pluck("file_path", &estFiles).Error; err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM reservation WHERE establishment_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id IN (?)", roomIDs).Delete(&RoomMedia{}).Error; err != nil {
			return err
		}
		if err := tx.Where("establishment_id = ?", id).Delete(&Room{}).Error; err != nil {
			return err
		}
		if err := tx.Where("establishment_id = ?", id).Delete(&EstablishmentMedia{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Establishment{}, id).Error; err != nil {
			return err
		}

		paths = append(roomFiles, estFiles...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonEmpty(paths), nil
}

/* ---------- ROOMS ---------- */

func (r *Repository) GetRoomByID(ctx context.Context, id int64) (*Room, error) {
	var room Room
	err := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) ListRooms(ctx context.Context, establishmentID int64) ([]Room, error) {
	var rooms []Room
	err := r.db.WithContext(ctx).
		Where("establishment_id = ?", establishmentID).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("id ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *Repository) RoomExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateRoom(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Omit("Media").Create(room).Error
}

func (r *Repository) UpdateRoom(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Omit("Media", "CreatedAt").Save(room).Error
}

func (r *Repository) SetRoomAvailability(ctx context.Context, id int64, available bool) error {
	res := r.db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).Update("available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes the room with its reservations and media in one
// transaction. It returns the file paths of removed media.
func (r *Repository) DeleteRoom(ctx context.Context, id int64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Room{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrRoomNotFound
		}
		if err := tx.Model(&RoomMedia{}).Where("room_id = ?", id).Pluck("file_path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM reservation WHERE room_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&RoomMedia{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Room{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return nonEmpty(paths), nil
}

/* ---------- MEDIA ---------- */

func (r *Repository) AddEstablishmentMedia(ctx context.Context, m *EstablishmentMedia) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) AddRoomMedia(ctx context.Context, m *RoomMedia) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) GetEstablishmentMedia(ctx context.Context, id uuid.UUID) (*EstablishmentMedia, error) {
	var m EstablishmentMedia
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMediaNotFound
	}
	return &m, err
}

func (r *Repository) GetRoomMedia(ctx context.Context, id uuid.UUID) (*RoomMedia, error) {
	var m RoomMedia
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMediaNotFound
	}
	return &m, err
}

func (r *Repository) DeleteEstablishmentMedia(ctx context.Context, id uuid.UUID) error {
	return deleteOne(r.db.WithContext(ctx).Where("id = ?", id).Delete(&EstablishmentMedia{}))
}

func (r *Repository) DeleteRoomMedia(ctx context.Context, id uuid.UUID) error {
	return deleteOne(r.db.WithContext(ctx).Where("id = ?", id).Delete(&RoomMedia{}))
}

func deleteOne(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

package catalog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"hotelbooking/internal/pkg/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo *Repository
	log  *zap.Logger
}

func NewService(repo *Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) ListEstablishments(ctx context.Context, f EstablishmentFilters) ([]Establishment, int64, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, newValidationError("category", "unknown category")
	}
	return s.repo.ListEstablishments(ctx, f)
}

func (s *Service) GetEstablishment(ctx context.Context, id int64) (*Establishment, error) {
	return s.repo.GetEstablishmentByID(ctx, id)
}

func (s *Service) CreateEstablishment(ctx context.Context, ownerID int64, req CreateEstablishmentRequest) (*Establishment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkEstablishment(req.Category, req.Stars); err != nil {
		return nil, err
	}

	e := &Establishment{
		OwnerID:     ownerID,
		Name:        req.Name,
		Address:     req.Address,
		PostalCode:  req.PostalCode,
		City:        req.City,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Category:    req.Category,
		Description: req.Description,
		Services:    normalizeServices(req.Services),
		Stars:       req.Stars,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
	}
	if err := s.repo.CreateEstablishment(ctx, e); err != nil {
		return nil, fmt.Errorf("create establishment: %w", err)
	}
	return e, nil
}

func (s *Service) UpdateEstablishment(ctx context.Context, id int64, req UpdateEstablishmentRequest) (*Establishment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	e, err := s.repo.GetEstablishmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Address != nil {
		e.Address = *req.Address
	}
	if req.PostalCode != nil {
		e.PostalCode = *req.PostalCode
	}
	if req.City != nil {
		e.City = *req.City
	}
	if req.Country != nil {
		e.Country = *req.Country
	}
	if req.Latitude != nil {
		e.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		e.Longitude = req.Longitude
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Services != nil {
		e.Services = normalizeServices(*req.Services)
	}
	if req.Stars != nil {
		e.Stars = req.Stars
	}
	if req.Phone != nil {
		e.Phone = *req.Phone
	}
	if req.Email != nil {
		e.Email = *req.Email
	}
	if req.Website != nil {
		e.Website = *req.Website
	}

	if err := checkEstablishment(e.Category, e.Stars); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEstablishment(ctx, e); err != nil {
		return nil, fmt.Errorf("update establishment %d: %w", id, err)
	}
	return e, nil
}

func (s *Service) DeleteEstablishment(ctx context.Context, id int64) error {
	paths, err := s.repo.DeleteEstablishment(ctx, id)
	if err != nil {
		return err
	}
	s.removeFiles(paths)
	return nil
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*Room, error) {
	return s.repo.GetRoomByID(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context, establishmentID int64) ([]Room, error) {
	ok, err := s.repo.EstablishmentExists(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEstablishmentNotFound
	}
	return s.repo.ListRooms(ctx, establishmentID)
}

func (s *Service) CreateRoom(ctx context.Context, establishmentID int64, req CreateRoomRequest) (*Room, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ok, err := s.repo.EstablishmentExists(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEstablishmentNotFound
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	room := &Room{
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Capacity:        req.Capacity,
		Available:       available,
		Type:            req.Type,
		Services:        normalizeServices(req.Services),
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, id int64, req UpdateRoomRequest) (*Room, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	room, err := s.repo.GetRoomByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, newValidationError("price", "must be greater than 0")
		}
		room.Price = *req.Price
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, newValidationError("capacity", "must be at least 1")
		}
		room.Capacity = *req.Capacity
	}
	if req.Available != nil {
		room.Available = *req.Available
	}
	if req.Type != nil {
		room.Type = *req.Type
	}
	if req.Services != nil {
		room.Services = normalizeServices(*req.Services)
	}

	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("update room %d: %w", id, err)
	}
	return room, nil
}

func (s *Service) SetRoomAvailability(ctx context.Context, id int64, available bool) error {
	return s.repo.SetRoomAvailability(ctx, id, available)
}

func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	paths, err := s.repo.DeleteRoom(ctx, id)
	if err != nil {
		return err
	}
	s.removeFiles(paths)
	return nil
}

// removeFiles runs after commit; a leftover file is logged, never fatal.
func (s *Service) removeFiles(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.log.Warn("remove media file", zap.String("path", p), zap.Error(err))
		}
	}
}

func validateStruct(v any) error {
	if fields := validator.Validate(v); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkEstablishment(category Category, stars *int) error {
	if !category.Valid() {
		return newValidationError("category", "must be one of hotel, hostel, villa, residence, other")
	}
	if stars != nil && (*stars < 0 || *stars > 5) {
		return newValidationError("stars", "must be between 0 and 5")
	}
	return nil
}

func normalizeServices(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

package media

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelbooking/internal/domain/catalog"
)

// CatalogStore is the part of the catalog repository media needs.
type CatalogStore interface {
	EstablishmentExists(ctx context.Context, id int64) (bool, error)
	RoomExists(ctx context.Context, id int64) (bool, error)
	AddEstablishmentMedia(ctx context.Context, m *catalog.EstablishmentMedia) error
	AddRoomMedia(ctx context.Context, m *catalog.RoomMedia) error
	GetEstablishmentMedia(ctx context.Context, id uuid.UUID) (*catalog.EstablishmentMedia, error)
	GetRoomMedia(ctx context.Context, id uuid.UUID) (*catalog.RoomMedia, error)
	DeleteEstablishmentMedia(ctx context.Context, id uuid.UUID) error
	DeleteRoomMedia(ctx context.Context, id uuid.UUID) error
}

// Service attaches uploaded files to establishments and rooms.
type Service struct {
	store   CatalogStore
	storage *DiskStorage
	log     *zap.Logger
}

func NewService(store CatalogStore, storage *DiskStorage, log *zap.Logger) *Service {
	return &Service{store: store, storage: storage, log: log}
}

func (s *Service) UploadEstablishmentMedia(ctx context.Context, establishmentID int64, fh *multipart.FileHeader) (*catalog.EstablishmentMedia, error) {
	ok, err := s.store.EstablishmentExists(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrEstablishmentNotFound
	}

	f, err := s.storage.Save(fh)
	if err != nil {
		return nil, err
	}
	m := &catalog.EstablishmentMedia{
		EstablishmentID: establishmentID,
		URL:             f.URL,
		Filename:        f.OriginalName,
		FilePath:        f.AbsPath,
		Kind:            f.Kind,
	}
	if err := s.store.AddEstablishmentMedia(ctx, m); err != nil {
		s.discard(f.AbsPath)
		return nil, fmt.Errorf("save media record: %w", err)
	}
	s.log.Info("establishment media uploaded",
		zap.Int64("establishment_id", establishmentID),
		zap.String("media_id", m.ID.String()),
		zap.String("mime", f.MimeType),
		zap.Int64("size", f.Size))
	return m, nil
}

func (s *Service) UploadRoomMedia(ctx context.Context, roomID int64, fh *multipart.FileHeader) (*catalog.RoomMedia, error) {
	ok, err := s.store.RoomExists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrRoomNotFound
	}

	f, err := s.storage.Save(fh)
	if err != nil {
		return nil, err
	}
	m := &catalog.RoomMedia{
		RoomID:   roomID,
		URL:      f.URL,
		Filename: f.OriginalName,
		FilePath: f.AbsPath,
		Kind:     f.Kind,
	}
	if err := s.store.AddRoomMedia(ctx, m); err != nil {
		s.discard(f.AbsPath)
		return nil, fmt.Errorf("save media record: %w", err)
	}
	s.log.Info("room media uploaded",
		zap.Int64("room_id", roomID),
		zap.String("media_id", m.ID.String()),
		zap.String("mime", f.MimeType),
		zap.Int64("size", f.Size))
	return m, nil
}

// DeleteEstablishmentMedia removes the row first, then the file. Media that
// belongs to another establishment is reported as not found.
func (s *Service) DeleteEstablishmentMedia(ctx context.Context, establishmentID int64, id uuid.UUID) error {
	m, err := s.store.GetEstablishmentMedia(ctx, id)
	if err != nil {
		return err
	}
	if m.EstablishmentID != establishmentID {
		return catalog.ErrMediaNotFound
	}
	if err := s.store.DeleteEstablishmentMedia(ctx, id); err != nil {
		return err
	}
	s.discard(m.FilePath)
	return nil
}

func (s *Service) DeleteRoomMedia(ctx context.Context, roomID int64, id uuid.UUID) error {
	m, err := s.store.GetRoomMedia(ctx, id)
	if err != nil {
		return err
	}
	if m.RoomID != roomID {
		return catalog.ErrMediaNotFound
	}
	if err := s.store.DeleteRoomMedia(ctx, id); err != nil {
		return err
	}
	s.discard(m.FilePath)
	return nil
}

func (s *Service) discard(path string) {
	if err := s.storage.Remove(path); err != nil {
		s.log.Warn("remove media file", zap.String("path", path), zap.Error(err))
	}
}

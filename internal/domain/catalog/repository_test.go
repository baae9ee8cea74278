package catalog_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/reservation"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_test_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect(database.Options{DSN: dsn, MaxOpenConns: 1, LogLevel: logger.Silent}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, append(catalog.Models(), reservation.Models()...)...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func intPtr(v int) *int { return &v }

func seedCatalog(t *testing.T, svc *catalog.Service) (paris, nice *catalog.Establishment) {
	t.Helper()
	ctx := context.Background()

	var err error
	paris, err = svc.CreateEstablishment(ctx, 1, catalog.CreateEstablishmentRequest{
		Name: "Grand Hôtel", Address: "1 rue de Rivoli", City: "Paris", Country: "France",
		Category: catalog.CategoryHotel, Stars: intPtr(5), Services: []string{"wifi", "spa", "wifi"},
	})
	require.NoError(t, err)
	nice, err = svc.CreateEstablishment(ctx, 1, catalog.CreateEstablishmentRequest{
		Name: "Villa Azur", Address: "2 promenade", City: "Nice", Country: "France",
		Category: catalog.CategoryVilla, Stars: intPtr(3),
	})
	require.NoError(t, err)

	_, err = svc.CreateRoom(ctx, paris.ID, catalog.CreateRoomRequest{Name: "Deluxe", Price: 250, Capacity: 2})
	require.NoError(t, err)
	_, err = svc.CreateRoom(ctx, paris.ID, catalog.CreateRoomRequest{Name: "Family", Price: 400, Capacity: 5})
	require.NoError(t, err)
	closed := false
	_, err = svc.CreateRoom(ctx, nice.ID, catalog.CreateRoomRequest{Name: "Garden", Price: 90, Capacity: 2, Available: &closed})
	require.NoError(t, err)
	_, err = svc.CreateRoom(ctx, nice.ID, catalog.CreateRoomRequest{Name: "Pool", Price: 150, Capacity: 4})
	require.NoError(t, err)
	return paris, nice
}

func TestListEstablishments_Filters(t *testing.T) {
	svc := catalog.NewService(catalog.NewRepository(setupTestDB(t)), zap.NewNop())
	paris, nice := seedCatalog(t, svc)
	ctx := context.Background()

	names := func(items []catalog.Establishment) []string {
		out := make([]string, 0, len(items))
		for _, e := range items {
			out = append(out, e.Name)
		}
		return out
	}

	tests := []struct {
		name    string
		filters catalog.EstablishmentFilters
		want    []string
	}{
		{"all sorted by name", catalog.EstablishmentFilters{}, []string{paris.Name, nice.Name}},
		{"city is case-insensitive", catalog.EstablishmentFilters{City: "nice"}, []string{nice.Name}},
		{"category", catalog.EstablishmentFilters{Category: catalog.CategoryHotel}, []string{paris.Name}},
		{"min stars", catalog.EstablishmentFilters{MinStars: 4}, []string{paris.Name}},
		{"max price ignores closed rooms", catalog.EstablishmentFilters{MaxPrice: 100}, []string{}},
		{"max price", catalog.EstablishmentFilters{MaxPrice: 200}, []string{nice.Name}},
		{"min capacity", catalog.EstablishmentFilters{MinCapacity: 5}, []string{paris.Name}},
		{"search", catalog.EstablishmentFilters{Search: "azur"}, []string{nice.Name}},
		{"price sort desc", catalog.EstablishmentFilters{SortBy: "price", SortOrder: "desc"}, []string{paris.Name, nice.Name}},
		{"stars sort asc", catalog.EstablishmentFilters{SortBy: "stars", SortOrder: "asc"}, []string{nice.Name, paris.Name}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := svc.ListEstablishments(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(items))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}

	items, _, err := svc.ListEstablishments(ctx, catalog.EstablishmentFilters{City: "Nice"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Rooms, 1, "only available rooms are listed")
	assert.Equal(t, "Pool", items[0].Rooms[0].Name)

	_, _, err = svc.ListEstablishments(ctx, catalog.EstablishmentFilters{Category: "castle"})
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func TestListEstablishments_Pagination(t *testing.T) {
	svc := catalog.NewService(catalog.NewRepository(setupTestDB(t)), zap.NewNop())
	seedCatalog(t, svc)

	items, total, err := svc.ListEstablishments(context.Background(), catalog.EstablishmentFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Villa Azur", items[0].Name)
}

func TestEstablishmentValidation(t *testing.T) {
	svc := catalog.NewService(catalog.NewRepository(setupTestDB(t)), zap.NewNop())
	ctx := context.Background()

	base := catalog.CreateEstablishmentRequest{Name: "X", Address: "a", City: "c", Country: "FR", Category: catalog.CategoryHotel}

	bad := base
	bad.Category = "castle"
	_, err := svc.CreateEstablishment(ctx, 1, bad)
	assert.ErrorIs(t, err, catalog.ErrValidation)

	bad = base
	bad.Stars = intPtr(6)
	_, err = svc.CreateEstablishment(ctx, 1, bad)
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "stars")

	bad = base
	bad.Name = ""
	_, err = svc.CreateEstablishment(ctx, 1, bad)
	assert.ErrorIs(t, err, catalog.ErrValidation)

	e, err := svc.CreateEstablishment(ctx, 1, base)
	require.NoError(t, err)

	_, err = svc.CreateRoom(ctx, e.ID, catalog.CreateRoomRequest{Name: "R", Price: 0, Capacity: 1})
	assert.ErrorIs(t, err, catalog.ErrValidation)
	_, err = svc.CreateRoom(ctx, e.ID, catalog.CreateRoomRequest{Name: "R", Price: 10, Capacity: 0})
	assert.ErrorIs(t, err, catalog.ErrValidation)
	_, err = svc.CreateRoom(ctx, 999, catalog.CreateRoomRequest{Name: "R", Price: 10, Capacity: 1})
	assert.ErrorIs(t, err, catalog.ErrEstablishmentNotFound)
}

func TestUpdates(t *testing.T) {
	svc := catalog.NewService(catalog.NewRepository(setupTestDB(t)), zap.NewNop())
	paris, _ := seedCatalog(t, svc)
	ctx := context.Background()

	name := "Grand Hôtel du Louvre"
	stars := 4
	updated, err := svc.UpdateEstablishment(ctx, paris.ID, catalog.UpdateEstablishmentRequest{Name: &name, Stars: &stars})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "Paris", updated.City)

	got, err := svc.GetEstablishment(ctx, paris.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, []string{"wifi", "spa"}, []string(got.Services))
	assert.Len(t, got.Rooms, 2)

	room := got.Rooms[0]
	price := 275.5
	r, err := svc.UpdateRoom(ctx, room.ID, catalog.UpdateRoomRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, price, r.Price)

	require.NoError(t, svc.SetRoomAvailability(ctx, room.ID, false))
	r, err = svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, r.Available)

	assert.ErrorIs(t, svc.SetRoomAvailability(ctx, 999, true), catalog.ErrRoomNotFound)
	_, err = svc.GetEstablishment(ctx, 999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteEstablishment_Cascades(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewRepository(db)
	svc := catalog.NewService(repo, zap.NewNop())
	paris, nice := seedCatalog(t, svc)
	ctx := context.Background()

	dir := t.TempDir()
	file := filepath.Join(dir, "room.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	rooms, err := svc.ListRooms(ctx, paris.ID)
	require.NoError(t, err)
	require.NoError(t, repo.AddRoomMedia(ctx, &catalog.RoomMedia{RoomID: rooms[0].ID, URL: "/u/room.jpg", FilePath: file, Kind: catalog.MediaImage}))
	require.NoError(t, repo.AddEstablishmentMedia(ctx, &catalog.EstablishmentMedia{EstablishmentID: paris.ID, URL: "/u/est.jpg", Kind: catalog.MediaImage}))

	uid := int64(3)
	require.NoError(t, db.Create(&reservation.Reservation{
		UserID: &uid, RoomID: rooms[0].ID, EstablishmentID: paris.ID,
		StartDate: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
		Guests: 1, TotalPrice: 250, Status: reservation.StatusPending,
	}).Error)

	require.NoError(t, svc.DeleteEstablishment(ctx, paris.ID))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(0), count(&reservation.Reservation{}))
	assert.Equal(t, int64(0), count(&catalog.RoomMedia{}))
	assert.Equal(t, int64(0), count(&catalog.EstablishmentMedia{}))
	assert.Equal(t, int64(2), count(&catalog.Room{}), "rooms of the other establishment survive")
	assert.NoFileExists(t, file)

	_, err = svc.GetEstablishment(ctx, nice.ID)
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteEstablishment(ctx, paris.ID), catalog.ErrEstablishmentNotFound)
}

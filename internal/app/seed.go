package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hotelbooking/internal/domain/catalog"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type SeedResult struct {
	AdminCreated   bool
	Establishments int
	Rooms          int
}

type demoRoom struct {
	name     string
	kind     string
	price    float64
	capacity int
}

type demoEstablishment struct {
	name     string
	city     string
	country  string
	category catalog.Category
	stars    int
	services []string
	rooms    []demoRoom
}

var demoCatalog = []demoEstablishment{
	{
		name: "Hôtel du Vieux Port", city: "Marseille", country: "France",
		category: catalog.CategoryHotel, stars: 4,
		services: []string{"wifi", "petit-déjeuner", "parking"},
		rooms: []demoRoom{
			{"Chambre Standard", "double", 95, 2},
			{"Suite Vue Mer", "suite", 210, 3},
		},
	},
	{
		name: "Auberge des Alpes", city: "Annecy", country: "France",
		category: catalog.CategoryHostel,
		services: []string{"wifi", "cuisine partagée"},
		rooms: []demoRoom{
			{"Dortoir 6 lits", "dortoir", 28, 6},
			{"Chambre Privée", "double", 64, 2},
		},
	},
	{
		name: "Villa Les Oliviers", city: "Nice", country: "France",
		category: catalog.CategoryVilla, stars: 5,
		services: []string{"piscine", "climatisation", "jardin"},
		rooms: []demoRoom{
			{"Villa entière", "villa", 480, 8},
		},
	},
}

// Seed creates the admin account and, on an empty catalog, a few demo
// establishments. Running it again only reports what already exists.
func (a *App) Seed(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	var res SeedResult
	var ownerID int64

	if opts.AdminEmail != "" {
		admin, created, err := a.Auth.EnsureAdmin(ctx, opts.AdminEmail, opts.AdminPassword, opts.AdminName)
		if err != nil {
			return res, fmt.Errorf("ensure admin: %w", err)
		}
		res.AdminCreated = created
		ownerID = admin.ID
		a.Log.Info("admin account ready", zap.Int64("user_id", admin.ID), zap.Bool("created", created))
	}

	var count int64
	if err := a.DB.WithContext(ctx).Model(&catalog.Establishment{}).Count(&count).Error; err != nil {
		return res, fmt.Errorf("count establishments: %w", err)
	}
	if count > 0 {
		a.Log.Info("catalog already seeded", zap.Int64("establishments", count))
		return res, nil
	}

	for _, d := range demoCatalog {
		e := &catalog.Establishment{
			OwnerID:  ownerID,
			Name:     d.name,
			City:     d.city,
			Country:  d.country,
			Category: d.category,
			Services: datatypes.JSONSlice[string](d.services),
		}
		if d.stars > 0 {
			stars := d.stars
			e.Stars = &stars
		}
		if err := a.catalogRepo.CreateEstablishment(ctx, e); err != nil {
			return res, fmt.Errorf("create establishment %q: %w", d.name, err)
		}
		res.Establishments++

		for _, dr := range d.rooms {
			room := &catalog.Room{
				EstablishmentID: e.ID,
				Name:            dr.name,
				Type:            dr.kind,
				Price:           dr.price,
				Capacity:        dr.capacity,
				Available:       true,
				Services:        datatypes.JSONSlice[string]{},
			}
			if err := a.catalogRepo.CreateRoom(ctx, room); err != nil {
				return res, fmt.Errorf("create room %q: %w", dr.name, err)
			}
			res.Rooms++
		}
	}

	a.Log.Info("catalog seeded", zap.Int("establishments", res.Establishments), zap.Int("rooms", res.Rooms))
	return res, nil
}

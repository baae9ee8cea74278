package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryHotel     Category = "hotel"
	CategoryHostel    Category = "hostel"
	CategoryVilla     Category = "villa"
	CategoryResidence Category = "residence"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryHotel, CategoryHostel, CategoryVilla, CategoryResidence, CategoryOther:
		return true
	}
	return false
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type Establishment struct {
	ID          int64                       `json:"id" gorm:"primaryKey"`
	OwnerID     int64                       `json:"owner_id" gorm:"index"`
	Name        string                      `json:"name" gorm:"type:varchar(255);not null"`
	Address     string                      `json:"address" gorm:"type:varchar(255)"`
	PostalCode  string                      `json:"postal_code" gorm:"type:varchar(16)"`
	City        string                      `json:"city" gorm:"type:varchar(128);index"`
	Country     string                      `json:"country" gorm:"type:varchar(128);index"`
	Latitude    *float64                    `json:"latitude,omitempty"`
	Longitude   *float64                    `json:"longitude,omitempty"`
	Category    Category                    `json:"category" gorm:"type:varchar(32);not null;index"`
	Description string                      `json:"description,omitempty" gorm:"type:text"`
	Services    datatypes.JSONSlice[string] `json:"services"`
	Stars       *int                        `json:"stars,omitempty"`
	Phone       string                      `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Email       string                      `json:"email,omitempty" gorm:"type:varchar(255)"`
	Website     string                      `json:"website,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`

	Rooms    []Room               `json:"rooms,omitempty" gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE"`
	Media    []EstablishmentMedia `json:"media,omitempty" gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE"`
	CoverURL string               `json:"cover_url,omitempty" gorm:"-"`
}

func (Establishment) TableName() string { return "etablissement" }

type Room struct {
	ID              int64                       `json:"id" gorm:"primaryKey"`
	EstablishmentID int64                       `json:"establishment_id" gorm:"not null;index"`
	Name            string                      `json:"name" gorm:"type:varchar(255);not null"`
	Description     string                      `json:"description,omitempty" gorm:"type:text"`
	Price           float64                     `json:"price" gorm:"type:decimal(10,2);not null"`
	Capacity        int                         `json:"capacity" gorm:"not null"`
	Available       bool                        `json:"available" gorm:"not null"`
	Type            string                      `json:"type,omitempty" gorm:"type:varchar(64)"`
	Services        datatypes.JSONSlice[string] `json:"services"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`

	Media []RoomMedia `json:"media,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (Room) TableName() string { return "chambre" }

type EstablishmentMedia struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EstablishmentID int64     `json:"establishment_id" gorm:"not null;index"`
	URL             string    `json:"url" gorm:"type:varchar(512);not null"`
	Filename        string    `json:"filename" gorm:"type:varchar(255)"`
	FilePath        string    `json:"-" gorm:"type:varchar(512)"`
	Kind            MediaKind `json:"kind" gorm:"type:varchar(16);not null"`
	CreatedAt       time.Time `json:"created_at"`
}

func (EstablishmentMedia) TableName() string { return "media_etablissement" }

func (m *EstablishmentMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type RoomMedia struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RoomID    int64     `json:"room_id" gorm:"not null;index"`
	URL       string    `json:"url" gorm:"type:varchar(512);not null"`
	Filename  string    `json:"filename" gorm:"type:varchar(255)"`
	FilePath  string    `json:"-" gorm:"type:varchar(512)"`
	Kind      MediaKind `json:"kind" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (RoomMedia) TableName() string { return "media_chambre" }

func (m *RoomMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Models lists the catalog tables in dependency order for migrations.
func Models() []any {
	return []any{&Establishment{}, &Room{}, &EstablishmentMedia{}, &RoomMedia{}}
}

package catalog

// ---------- ESTABLISHMENT ----------

type CreateEstablishmentRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Address     string   `json:"address" validate:"required"`
	PostalCode  string   `json:"postal_code"`
	City        string   `json:"city" validate:"required"`
	Country     string   `json:"country" validate:"required"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Category    Category `json:"category" validate:"required"`
	Description string   `json:"description"`
	Services    []string `json:"services"`
	Stars       *int     `json:"stars,omitempty"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Website     string   `json:"website" validate:"omitempty,url"`
}

type UpdateEstablishmentRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Address     *string   `json:"address,omitempty"`
	PostalCode  *string   `json:"postal_code,omitempty"`
	City        *string   `json:"city,omitempty" validate:"omitempty,min=1"`
	Country     *string   `json:"country,omitempty" validate:"omitempty,min=1"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	Services    *[]string `json:"services,omitempty"`
	Stars       *int      `json:"stars,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty" validate:"omitempty,email"`
	Website     *string   `json:"website,omitempty"`
}

// ---------- ROOMS ----------

type CreateRoomRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Capacity    int      `json:"capacity" validate:"required,gte=1"`
	Available   *bool    `json:"available,omitempty"`
	Type        string   `json:"type"`
	Services    []string `json:"services"`
}

type UpdateRoomRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	Available   *bool     `json:"available,omitempty"`
	Type        *string   `json:"type,omitempty"`
	Services    *[]string `json:"services,omitempty"`
}

type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// ---------- LISTING ----------

type EstablishmentFilters struct {
	City        string
	Country     string
	Category    Category
	MinPrice    float64
	MaxPrice    float64
	MinCapacity int
	MinStars    int
	Search      string
	SortBy      string
	SortOrder   string
	Limit       int
	Offset      int
}

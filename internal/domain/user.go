package domain

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleAdmin  UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID    int64
	Role      UserRole
	Anonymous bool
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Owns reports whether the caller may act on a resource owned by userID.
func (p Principal) Owns(userID *int64) bool {
	return userID != nil && *userID == p.UserID
}

package auth

import (
	"time"

	"hotelbooking/internal/domain"
)

// User is an account. Anonymous users have no email and no password and are
// purged after a grace period unless they register.
type User struct {
	ID                  int64           `json:"id" gorm:"primaryKey"`
	Email               *string         `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash        string          `json:"-" gorm:"type:varchar(255)"`
	Name                string          `json:"name" gorm:"type:varchar(120)"`
	Role                domain.UserRole `json:"role" gorm:"type:varchar(16);not null"`
	IsAnonymous         bool            `json:"is_anonymous" gorm:"not null"`
	FailedLoginAttempts int             `json:"-" gorm:"not null;default:0"`
	LockedUntil         *time.Time      `json:"-"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) Principal() domain.Principal {
	return domain.Principal{UserID: u.ID, Role: u.Role, Anonymous: u.IsAnonymous}
}

func Models() []any {
	return []any{&User{}}
}

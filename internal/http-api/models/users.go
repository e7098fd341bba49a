package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values, ordered by privilege. Superadmin is authorization-equivalent
// to admin everywhere in this API.
const (
	RoleUser       = "user"
	RoleModerator  = "moderator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

type User struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	Role      string `gorm:"default:'user';not null" json:"role"`

	// bcrypt hash of the emailed confirmation code; nil once the code has
	// been exchanged for tokens (single-use) or never issued
	ConfirmationCode *string `gorm:"column:confirmation_code" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds admin-class privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// IsModerator reports whether the user may manage other users' content.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.IsAdmin()
}

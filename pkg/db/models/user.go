package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/procureline/procureline-backend/pkg/enums"
)

// User represents the canonical identity entity. Buyers own carts, orders
// and contacts; shop users own at most one Shop.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	FirstName     string         `gorm:"column:first_name;not null"`
	LastName      string         `gorm:"column:last_name;not null"`
	Role          enums.UserRole `gorm:"column:role;type:text;not null;default:'buyer'"`
	Company       string         `gorm:"column:company;not null;default:''"`
	Position      string         `gorm:"column:position;not null;default:''"`
	EmailVerified bool           `gorm:"column:email_verified;not null;default:false"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	Contacts      []Contact      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Orders        []Order        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

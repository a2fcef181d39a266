package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailConfirmationToken is issued at registration and consumed exactly
// once within 24 hours to verify the account email.
type EmailConfirmationToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Token     string    `gorm:"column:token;not null;uniqueIndex"`
	IsUsed    bool      `gorm:"column:is_used;not null;default:false"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Expired reports whether the token can no longer be consumed.
func (t EmailConfirmationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

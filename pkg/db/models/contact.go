package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a buyer delivery address. Orders reference contacts without
// owning them; a contact referenced by any order cannot be deleted.
type Contact struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	FirstName  string    `gorm:"column:first_name;not null"`
	LastName   string    `gorm:"column:last_name;not null"`
	Patronymic string    `gorm:"column:patronymic;not null;default:''"`
	Email      string    `gorm:"column:email;not null"`
	Phone      string    `gorm:"column:phone;not null"`
	City       string    `gorm:"column:city;not null"`
	Street     string    `gorm:"column:street;not null"`
	House      string    `gorm:"column:house;not null"`
	Structure  string    `gorm:"column:structure;not null;default:''"`
	Building   string    `gorm:"column:building;not null;default:''"`
	Apartment  string    `gorm:"column:apartment;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

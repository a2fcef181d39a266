package models

import "github.com/google/uuid"

// Category is a globally named grouping of products, associated with every
// shop whose catalog mentions it. Imports create categories but never
// delete them.
type Category struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string    `gorm:"column:name;not null;uniqueIndex"`
	Shops    []Shop    `gorm:"many2many:shop_categories"`
	Products []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

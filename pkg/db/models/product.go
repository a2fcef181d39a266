package models

import "github.com/google/uuid"

// Product is the catalog-wide item identity. Shops attach their own priced
// listing through ProductInfo; Product itself carries no price or stock.
type Product struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID     `gorm:"column:category_id;type:uuid;not null;uniqueIndex:idx_products_category_name"`
	Name        string        `gorm:"column:name;not null;uniqueIndex:idx_products_category_name"`
	Description string        `gorm:"column:description;not null;default:''"`
	Category    *Category     `gorm:"foreignKey:CategoryID"`
	Infos       []ProductInfo `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop represents a supplier tenant. One shop per owner.
type Shop struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID     `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name         string        `gorm:"column:name;not null;uniqueIndex"`
	URL          string        `gorm:"column:url;not null;default:''"`
	IsActive     bool          `gorm:"column:is_active;not null;default:true"`
	Categories   []Category    `gorm:"many2many:shop_categories"`
	ProductInfos []ProductInfo `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

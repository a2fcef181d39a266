package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInfo is a shop's priced, stocked listing of a Product. Cart and
// order lines reference ProductInfo, not Product, because price and stock
// are per shop.
type ProductInfo struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	ShopID     uuid.UUID          `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:idx_product_infos_shop_external"`
	ExternalID int64              `gorm:"column:external_id;not null;uniqueIndex:idx_product_infos_shop_external"`
	Model      string             `gorm:"column:model;not null;default:''"`
	Name       string             `gorm:"column:name;not null;default:''"`
	Price      decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	PriceRRC   decimal.Decimal    `gorm:"column:price_rrc;type:numeric(12,2);not null"`
	Quantity   int                `gorm:"column:quantity;not null;default:0"`
	Product    *Product           `gorm:"foreignKey:ProductID"`
	Shop       *Shop              `gorm:"foreignKey:ShopID"`
	Parameters []ProductParameter `gorm:"foreignKey:ProductInfoID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

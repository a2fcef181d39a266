package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureline/procureline-backend/pkg/enums"
)

// Order is both the mutable cart and the placed order: confirmation flips
// the same row from cart to new instead of copying it. A partial unique
// index keeps at most one cart row per user.
type Order struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	ContactID *uuid.UUID        `gorm:"column:contact_id;type:uuid"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'cart'"`
	Comment   string            `gorm:"column:comment;not null;default:''"`
	Contact   *Contact          `gorm:"foreignKey:ContactID"`
	Items     []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalQuantity sums item quantities. Computed on read, never stored.
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// TotalCost sums item snapshot totals. Computed on read, never stored.
func (o Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// OrderItem is one line of an order. Price is a snapshot of the listing
// price at the moment the line was added or last updated.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_items_order_info"`
	ProductInfoID uuid.UUID       `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:idx_order_items_order_info"`
	Quantity      int             `gorm:"column:quantity;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ProductInfo   *ProductInfo    `gorm:"foreignKey:ProductInfoID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalPrice is the snapshot unit price times quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

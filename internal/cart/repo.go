package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
)

// CartRepository is the persistence surface the cart service depends on.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	FindCartByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	CreateCart(ctx context.Context, order *models.Order) error
	FindListingForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error)
	FindItem(ctx context.Context, orderID, productInfoID uuid.UUID) (*models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) error
	SaveItem(ctx context.Context, item *models.OrderItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// Repository exposes persistence operations for the active cart.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindCartByUser loads the user's cart with its lines and listings.
func (r *Repository) FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Preload("Items.ProductInfo").
		Preload("Items.ProductInfo.Product").
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusCart).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindCartByUserForUpdate loads the cart row under a row lock. Mutations of
// the same cart serialize on this lock.
func (r *Repository) FindCartByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusCart).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateCart inserts a new cart row for the user. The partial unique index
// on (user_id) WHERE status = 'cart' rejects a concurrent duplicate.
func (r *Repository) CreateCart(ctx context.Context, order *models.Order) error {
	order.Status = enums.OrderStatusCart
	return r.db.WithContext(ctx).Create(order).Error
}

// FindListingForUpdate loads a catalog listing under a row lock so stock
// validation reads a stable quantity.
func (r *Repository) FindListingForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	var info models.ProductInfo
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&info, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// FindItem returns the cart line for the listing, if any.
func (r *Repository) FindItem(ctx context.Context, orderID, productInfoID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_info_id = ?", orderID, productInfoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveItem persists the provided cart line.
func (r *Repository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes a cart line.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OrderItem{}, "id = ?", id).Error
}

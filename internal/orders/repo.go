package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
)

// OrderRepository is the persistence surface the order service depends on.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	FindCartByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	CountItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	Save(ctx context.Context, order *models.Order) error
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListTouchingShop(ctx context.Context, shopID uuid.UUID) ([]models.Order, error)
}

// Repository exposes persistence operations for placed orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindCartByUserForUpdate loads the user's cart row under a row lock.
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

// CountItems counts the lines of an order.
func (r *Repository) CountItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

// Save persists the provided order.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *Repository) preloadLines(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Contact").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Preload("Items.ProductInfo").
		Preload("Items.ProductInfo.Product").
		Preload("Items.ProductInfo.Shop")
}

// FindByIDAndUser returns a placed (non-cart) order restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.preloadLines(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ? AND status <> ?", id, userID, enums.OrderStatusCart).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's placed orders, newest first. Carts are
// excluded.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.preloadLines(r.db.WithContext(ctx)).
		Where("user_id = ? AND status <> ?", userID, enums.OrderStatusCart).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads any order with its lines. Used by the status authority.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.preloadLines(r.db.WithContext(ctx)).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads the bare order row under a row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListTouchingShop returns placed orders that contain at least one line for
// the shop's listings. Lines are loaded in full; the service trims them to
// the shop's subset.
func (r *Repository) ListTouchingShop(ctx context.Context, shopID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.preloadLines(r.db.WithContext(ctx)).
		Where("orders.status <> ?", enums.OrderStatusCart).
		Where(`orders.id IN (
			SELECT order_items.order_id
			FROM order_items
			JOIN product_infos ON product_infos.id = order_items.product_info_id
			WHERE product_infos.shop_id = ?
		)`, shopID).
		Order("orders.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package shops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procureline/procureline-backend/pkg/db/models"
)

// ShopRepository is the persistence surface the shop service depends on.
type ShopRepository interface {
	WithTx(tx *gorm.DB) ShopRepository
	Create(ctx context.Context, shop *models.Shop) (*models.Shop, error)
	Save(ctx context.Context, shop *models.Shop) (*models.Shop, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
	FindByOwnerForUpdate(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
	AppendCategories(ctx context.Context, shop *models.Shop, categories []models.Category) error
}

// Repository exposes persistence operations for supplier shops.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shop repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ShopRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new shop.
func (r *Repository) Create(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// Save persists the provided shop.
func (r *Repository) Save(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Save(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// FindByID loads a shop by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindByOwner loads the shop owned by the provided user.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindByOwnerForUpdate loads the owner's shop under a row lock. Catalog
// imports take this lock so two imports for the same shop serialize.
func (r *Repository) FindByOwnerForUpdate(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// AppendCategories associates the categories with the shop, ignoring ones
// already linked.
func (r *Repository) AppendCategories(ctx context.Context, shop *models.Shop, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(shop).
		Omit("Categories.*").
		Association("Categories").
		Append(&categories)
}

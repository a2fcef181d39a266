package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/pagination"
)

// ListFilter narrows the public catalog listing query.
type ListFilter struct {
	CategoryID *uuid.UUID
	ShopID     *uuid.UUID
	Query      string
	InStock    bool
}

// CatalogRepository is the read surface the catalog service depends on.
type CatalogRepository interface {
	ListListings(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.ProductInfo, error)
	FindListingByID(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Repository exposes read operations over the published catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListListings returns shop listings matching the filter, newest first,
// keyset-paginated on (created_at, id).
func (r *Repository) ListListings(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.ProductInfo, error) {
	q := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Joins("JOIN products ON products.id = product_infos.product_id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("shops.is_active = ?", true).
		Preload("Product").
		Preload("Product.Category").
		Preload("Shop")

	if filter.CategoryID != nil {
		q = q.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.ShopID != nil {
		q = q.Where("product_infos.shop_id = ?", *filter.ShopID)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("product_infos.name ILIKE ? OR product_infos.model ILIKE ? OR products.name ILIKE ?", like, like, like)
	}
	if filter.InStock {
		q = q.Where("product_infos.quantity > 0")
	}
	if cursor != nil {
		q = q.Where(
			"(product_infos.created_at, product_infos.id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.ProductInfo
	err := q.Order("product_infos.created_at DESC, product_infos.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindListingByID loads one listing with its product, shop and parameters.
func (r *Repository) FindListingByID(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	var info models.ProductInfo
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Category").
		Preload("Shop").
		Preload("Parameters").
		Preload("Parameters.Parameter").
		First(&info, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ListCategories returns all known categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
)

// CatalogWriter is the persistence surface the reconciler depends on.
type CatalogWriter interface {
	WithTx(tx *gorm.DB) CatalogWriter
	GetOrCreateCategory(ctx context.Context, name string) (*models.Category, bool, error)
	GetOrCreateProduct(ctx context.Context, categoryID uuid.UUID, name, description string) (*models.Product, bool, error)
	GetOrCreateParameter(ctx context.Context, name string) (*models.Parameter, bool, error)
	FindListing(ctx context.Context, shopID uuid.UUID, externalID int64) (*models.ProductInfo, error)
	CreateListing(ctx context.Context, info *models.ProductInfo) error
	SaveListing(ctx context.Context, info *models.ProductInfo) error
	ReplaceParameters(ctx context.Context, infoID uuid.UUID, params []models.ProductParameter) error
	ZeroUnseenListings(ctx context.Context, shopID uuid.UUID, seen []int64) (int64, error)
}

// Repository exposes catalog write operations for reconciliation.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an importer repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CatalogWriter {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetOrCreateCategory resolves a category by name, creating it when absent.
// The second return reports whether a row was created.
func (r *Repository) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, bool, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	category = models.Category{Name: name}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, false, err
	}
	return &category, true, nil
}

// GetOrCreateProduct resolves a product by (category, name). Description is
// written only when the product is created.
func (r *Repository) GetOrCreateProduct(ctx context.Context, categoryID uuid.UUID, name, description string) (*models.Product, bool, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND name = ?", categoryID, name).
		First(&product).Error
	if err == nil {
		return &product, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	product = models.Product{CategoryID: categoryID, Name: name, Description: description}
	if err := r.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, false, err
	}
	return &product, true, nil
}

// GetOrCreateParameter resolves a characteristic name, creating it when absent.
func (r *Repository) GetOrCreateParameter(ctx context.Context, name string) (*models.Parameter, bool, error) {
	var parameter models.Parameter
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&parameter).Error
	if err == nil {
		return &parameter, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	parameter = models.Parameter{Name: name}
	if err := r.db.WithContext(ctx).Create(&parameter).Error; err != nil {
		return nil, false, err
	}
	return &parameter, true, nil
}

// FindListing loads a shop listing by its supplier-side id.
func (r *Repository) FindListing(ctx context.Context, shopID uuid.UUID, externalID int64) (*models.ProductInfo, error) {
	var info models.ProductInfo
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND external_id = ?", shopID, externalID).
		First(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateListing inserts a new shop listing.
func (r *Repository) CreateListing(ctx context.Context, info *models.ProductInfo) error {
	return r.db.WithContext(ctx).Create(info).Error
}

// SaveListing persists the provided listing.
func (r *Repository) SaveListing(ctx context.Context, info *models.ProductInfo) error {
	return r.db.WithContext(ctx).Save(info).Error
}

// ReplaceParameters deletes the listing's characteristic rows and writes
// the provided set.
func (r *Repository) ReplaceParameters(ctx context.Context, infoID uuid.UUID, params []models.ProductParameter) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_info_id = ?", infoID).Delete(&models.ProductParameter{}).Error; err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	for i := range params {
		params[i].ProductInfoID = infoID
	}
	return tx.Create(&params).Error
}

// ZeroUnseenListings forces quantity to zero for every listing of the shop
// whose external id is not in the seen set. Rows are kept so order history
// stays intact.
func (r *Repository) ZeroUnseenListings(ctx context.Context, shopID uuid.UUID, seen []int64) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Where("shop_id = ? AND quantity <> 0", shopID)
	if len(seen) > 0 {
		q = q.Where("external_id NOT IN ?", seen)
	}
	res := q.UpdateColumn("quantity", 0)
	return res.RowsAffected, res.Error
}

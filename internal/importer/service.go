package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/internal/shops"
	"github.com/procureline/procureline-backend/pkg/db/models"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ImportResult reports how many rows the reconciliation created. Updates
// are not counted, so re-importing an unchanged price list reports zeros.
type ImportResult struct {
	CategoriesCreated   int `json:"categories_created"`
	ProductsCreated     int `json:"products_created"`
	ProductInfosCreated int `json:"product_infos_created"`
	ParametersCreated   int `json:"parameters_created"`
}

// Service reconciles supplier price lists into the catalog.
type Service interface {
	Import(ctx context.Context, ownerID uuid.UUID, doc *Document) (*ImportResult, error)
}

type service struct {
	catalog  CatalogWriter
	shopRepo shops.ShopRepository
	tx       txRunner
	business *metrics.BusinessMetrics
}

// NewService builds an importer service backed by the provided stack.
func NewService(catalog CatalogWriter, shopRepo shops.ShopRepository, tx txRunner, business *metrics.BusinessMetrics) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog writer required")
	}
	if shopRepo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{catalog: catalog, shopRepo: shopRepo, tx: tx, business: business}, nil
}

// Import applies the parsed price list to the owner's shop in one
// transaction. The shop row is locked for the duration so two imports for
// the same shop serialize; imports for different shops do not block each
// other.
func (s *service) Import(ctx context.Context, ownerID uuid.UUID, doc *Document) (*ImportResult, error) {
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list document is required")
	}
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	var result ImportResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.catalog.WithTx(tx)
		shopRepo := s.shopRepo.WithTx(tx)

		shop, err := s.lockShop(ctx, shopRepo, ownerID, doc.Shop)
		if err != nil {
			return err
		}

		categoryByRef, err := s.reconcileCategories(ctx, catalog, shopRepo, shop, doc.Categories, &result)
		if err != nil {
			return err
		}

		seen := make([]int64, 0, len(doc.Goods))
		for _, good := range doc.Goods {
			category, ok := categoryByRef[good.Category]
			if !ok {
				// A goods line cannot create implicit categories.
				continue
			}
			if err := s.reconcileGood(ctx, catalog, shop.ID, category.ID, good, &result); err != nil {
				return err
			}
			seen = append(seen, good.ID)
		}

		if _, err := catalog.ZeroUnseenListings(ctx, shop.ID, seen); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "zero unseen listings")
		}
		return nil
	})
	if err != nil {
		s.business.IncImport("failure")
		return nil, err
	}
	s.business.IncImport("success")
	return &result, nil
}

// lockShop loads the owner's shop under FOR UPDATE, creating it first when
// the owner has none yet, and renames it to the price list's shop name.
func (s *service) lockShop(ctx context.Context, repo shops.ShopRepository, ownerID uuid.UUID, name string) (*models.Shop, error) {
	shop, err := repo.FindByOwnerForUpdate(ctx, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := &models.Shop{OwnerID: ownerID, Name: strings.TrimSpace(name)}
		if _, err := repo.Create(ctx, created); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
		}
		shop, err = repo.FindByOwnerForUpdate(ctx, ownerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock shop")
		}
	} else if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock shop")
	}

	if trimmed := strings.TrimSpace(name); trimmed != "" && shop.Name != trimmed {
		shop.Name = trimmed
		if _, err := repo.Save(ctx, shop); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename shop")
		}
	}
	return shop, nil
}

// reconcileCategories builds the external-ref map and links every named
// category to the shop. Entries without a name are skipped and not counted.
func (s *service) reconcileCategories(ctx context.Context, catalog CatalogWriter, shopRepo shops.ShopRepository, shop *models.Shop, payload []CategoryPayload, result *ImportResult) (map[int64]*models.Category, error) {
	byRef := make(map[int64]*models.Category, len(payload))
	link := make([]models.Category, 0, len(payload))

	for _, entry := range payload {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		category, created, err := catalog.GetOrCreateCategory(ctx, name)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile category")
		}
		if created {
			result.CategoriesCreated++
		}
		byRef[entry.ID] = category
		link = append(link, *category)
	}

	if err := shopRepo.AppendCategories(ctx, shop, link); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link categories")
	}
	return byRef, nil
}

// reconcileGood upserts one listing and replaces its characteristic set.
func (s *service) reconcileGood(ctx context.Context, catalog CatalogWriter, shopID, categoryID uuid.UUID, good GoodPayload, result *ImportResult) error {
	product, created, err := catalog.GetOrCreateProduct(ctx, categoryID, good.ProductName(), strings.TrimSpace(good.Description))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile product")
	}
	if created {
		result.ProductsCreated++
	}

	info, err := catalog.FindListing(ctx, shopID, good.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		info = &models.ProductInfo{ShopID: shopID, ExternalID: good.ID}
		applyGood(info, product.ID, good)
		if err := catalog.CreateListing(ctx, info); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
		}
		result.ProductInfosCreated++
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	default:
		applyGood(info, product.ID, good)
		if err := catalog.SaveListing(ctx, info); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
		}
	}

	params := make([]models.ProductParameter, 0, len(good.Parameters))
	for name, value := range good.Parameters {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		parameter, created, err := catalog.GetOrCreateParameter(ctx, trimmed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile parameter")
		}
		if created {
			result.ParametersCreated++
		}
		params = append(params, models.ProductParameter{
			ParameterID: parameter.ID,
			Value:       value,
		})
	}
	if err := catalog.ReplaceParameters(ctx, info.ID, params); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace parameters")
	}
	return nil
}

func applyGood(info *models.ProductInfo, productID uuid.UUID, good GoodPayload) {
	info.ProductID = productID
	info.Model = strings.TrimSpace(good.Model)
	info.Name = strings.TrimSpace(good.Name)
	info.Price = good.Price.Decimal
	info.PriceRRC = good.PriceRRC.Decimal
	info.Quantity = good.Quantity
}

package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db"
	"github.com/procureline/procureline-backend/pkg/db/models"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the buyer's active cart operations. The cart is an Order
// row in status cart; confirmation (internal/orders) flips the same row.
type Service interface {
	CartFor(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	SetLine(ctx context.Context, userID, productInfoID uuid.UUID, quantity int) (*models.Order, error)
	RemoveLine(ctx context.Context, userID, productInfoID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CartFor returns the user's active cart, creating one on first access.
// Safe under concurrent calls: a duplicate insert loses to the partial
// unique index and falls back to re-fetching the winner's row.
func (s *service) CartFor(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created := &models.Order{UserID: userID}
	if err := s.repo.CreateCart(ctx, created); err != nil {
		if db.IsUniqueViolation(err, "") {
			if existing, refetchErr := s.repo.FindCartByUser(ctx, userID); refetchErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}

	cart, err = s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// SetLine creates or overwrites the cart line for the listing. The quantity
// replaces the stored one, and the unit price is re-snapshotted from the
// listing's current price on every call.
func (s *service) SetLine(ctx context.Context, userID, productInfoID uuid.UUID, quantity int) (*models.Order, error) {
	if productInfoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product info id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"field": "quantity"})
	}

	// Ensure the cart row exists before taking the row lock.
	if _, err := s.CartFor(ctx, userID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.FindCartByUserForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
		}

		info, err := repo.FindListingForUpdate(ctx, productInfoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if quantity > info.Quantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
				WithDetails(map[string]any{"field": "quantity", "available": info.Quantity})
		}

		item, err := repo.FindItem(ctx, locked.ID, info.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.OrderItem{
				OrderID:       locked.ID,
				ProductInfoID: info.ID,
				Quantity:      quantity,
				Price:         info.Price,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		default:
			item.Quantity = quantity
			item.Price = info.Price
			if err := repo.SaveItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshed, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return refreshed, nil
}

// RemoveLine deletes the cart line for the listing.
func (s *service) RemoveLine(ctx context.Context, userID, productInfoID uuid.UUID) (*models.Order, error) {
	if productInfoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product info id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.FindCartByUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
		}

		item, err := repo.FindItem(ctx, locked.ID, productInfoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshed, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return refreshed, nil
}

package shops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db"
	"github.com/procureline/procureline-backend/pkg/db/models"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes supplier shop profile operations.
type Service interface {
	Profile(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
	UpdateProfile(ctx context.Context, ownerID uuid.UUID, input UpdateProfileInput) (*models.Shop, error)
}

type service struct {
	repo ShopRepository
	tx   txRunner
}

// NewService builds a shop service backed by the provided stack.
func NewService(repo ShopRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// UpdateProfileInput carries the editable shop profile fields. IsActive is
// optional so a rename does not silently re-enable a paused shop.
type UpdateProfileInput struct {
	Name     string
	URL      string
	IsActive *bool
}

// Profile returns the owner's shop, creating an empty one on first access.
func (s *service) Profile(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	shop, err := s.repo.FindByOwner(ctx, ownerID)
	if err == nil {
		return shop, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}

	created := &models.Shop{
		OwnerID: ownerID,
		Name:    defaultShopName(ownerID),
	}
	if _, err := s.repo.Create(ctx, created); err != nil {
		// Another request created the shop between the miss and the insert.
		if db.IsUniqueViolation(err, "") {
			if existing, refetchErr := s.repo.FindByOwner(ctx, ownerID); refetchErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	return created, nil
}

// UpdateProfile applies the profile changes to the owner's shop.
func (s *service) UpdateProfile(ctx context.Context, ownerID uuid.UUID, input UpdateProfileInput) (*models.Shop, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
	}

	var updated *models.Shop
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shop, err := repo.FindByOwner(ctx, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				shop = &models.Shop{OwnerID: ownerID, Name: name, IsActive: true}
			} else {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
			}
		}

		shop.Name = name
		shop.URL = strings.TrimSpace(input.URL)
		if input.IsActive != nil {
			shop.IsActive = *input.IsActive
		}

		saved, err := repo.Save(ctx, shop)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "shop name already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shop")
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func defaultShopName(ownerID uuid.UUID) string {
	return "shop-" + strings.Split(ownerID.String(), "-")[0]
}

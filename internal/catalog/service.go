package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/pagination"
)

// Service exposes the public catalog read operations.
type Service interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListingPage, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// ListingPage is one page of catalog listings plus the cursor for the next.
type ListingPage struct {
	Items      []models.ProductInfo
	NextCursor string
}

type service struct {
	repo CatalogRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo CatalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// List returns one page of published listings.
func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListingPage, error) {
	filter.Query = strings.TrimSpace(filter.Query)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListListings(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}

	page := &ListingPage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// Get returns one listing with its characteristics.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	info, err := s.repo.FindListingByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return info, nil
}

// Categories returns the category reference list.
func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

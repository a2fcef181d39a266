package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/pagination"
)

func TestListPaginatesWithCursor(t *testing.T) {
	t.Parallel()

	rows := make([]models.ProductInfo, 0, 3)
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		rows = append(rows, models.ProductInfo{
			ID:        uuid.New(),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	svc := newTestService(&stubCatalogRepo{rows: rows})

	page, err := svc.List(context.Background(), ListFilter{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor for overfull page")
	}

	cursor, err := pagination.ParseCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("cursor must round-trip: %v", err)
	}
	if cursor.ID != page.Items[1].ID {
		t.Fatalf("cursor should point at last returned row")
	}
}

func TestListNoNextCursorOnFinalPage(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubCatalogRepo{rows: []models.ProductInfo{{ID: uuid.New()}}})

	page, err := svc.List(context.Background(), ListFilter{}, pagination.Params{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor != "" {
		t.Fatalf("expected empty cursor, got %q", page.NextCursor)
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubCatalogRepo{})

	_, err := svc.List(context.Background(), ListFilter{}, pagination.Params{Cursor: "not-base64!"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubCatalogRepo{findErr: gorm.ErrRecordNotFound})

	_, err := svc.Get(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func newTestService(repo CatalogRepository) Service {
	svc, err := NewService(repo)
	if err != nil {
		panic(err)
	}
	return svc
}

type stubCatalogRepo struct {
	rows    []models.ProductInfo
	findErr error
}

func (s *stubCatalogRepo) ListListings(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.ProductInfo, error) {
	if limit < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func (s *stubCatalogRepo) FindListingByID(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return &models.ProductInfo{ID: id}, nil
}

func (s *stubCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return nil, nil
}

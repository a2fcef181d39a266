package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

func TestCartForCreatesOnFirstAccess(t *testing.T) {
	t.Parallel()

	repo := newFakeCartRepo()
	svc := newTestService(t, repo)
	userID := uuid.New()

	cart, err := svc.CartFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Status != enums.OrderStatusCart {
		t.Fatalf("expected cart status, got %s", cart.Status)
	}

	again, err := svc.CartFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatal("second access must return the same cart row")
	}
}

func TestCartForStartsFreshAfterPlacement(t *testing.T) {
	t.Parallel()

	repo := newFakeCartRepo()
	svc := newTestService(t, repo)
	userID := uuid.New()

	cart, err := svc.CartFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Confirmation flips the row out of status cart; the placed order
	// must never come back as the active cart.
	repo.carts[userID].Status = enums.OrderStatusNew

	fresh, err := svc.CartFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.ID == cart.ID {
		t.Fatal("placed order must not be reused as the cart")
	}
	if fresh.Status != enums.OrderStatusCart {
		t.Fatalf("expected cart status, got %s", fresh.Status)
	}
}

func TestCartForRefetchesAfterLostInsertRace(t *testing.T) {
	t.Parallel()

	repo := &racingCartRepo{fakeCartRepo: newFakeCartRepo()}
	svc := newTestService(t, repo)
	userID := uuid.New()

	cart, err := svc.CartFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner := repo.carts[userID]; cart.ID != winner.ID {
		t.Fatal("losing insert must return the winner's cart row")
	}
	if cart.Status != enums.OrderStatusCart {
		t.Fatalf("expected cart status, got %s", cart.Status)
	}
}

func TestSetLineRejectsZeroQuantity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeCartRepo())

	_, err := svc.SetLine(context.Background(), uuid.New(), uuid.New(), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetLineRejectsOverStock(t *testing.T) {
	t.Parallel()

	repo := newFakeCartRepo()
	info := repo.addListing(3, "100.00")
	svc := newTestService(t, repo)

	_, err := svc.SetLine(context.Background(), uuid.New(), info.ID, 4)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetLineOverwritesQuantityAndResnapshotsPrice(t *testing.T) {
	t.Parallel()

	repo := newFakeCartRepo()
	info := repo.addListing(10, "100.00")
	svc := newTestService(t, repo)
	userID := uuid.New()

	if _, err := svc.SetLine(context.Background(), userID, info.ID, 2); err != nil {
		t.Fatalf("first set: %v", err)
	}

	// Supplier reprices between the two calls.
	info.Price = decimal.RequireFromString("80.00")

	cart, err := svc.SetLine(context.Background(), userID, info.ID, 3)
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(cart.Items))
	}
	line := cart.Items[0]
	if line.Quantity != 3 {
		t.Fatalf("set must overwrite, not add: got quantity %d", line.Quantity)
	}
	if !line.Price.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("price must be re-snapshotted, got %s", line.Price)
	}
}

func TestSetLineUnknownListing(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeCartRepo())

	_, err := svc.SetLine(context.Background(), uuid.New(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemoveLine(t *testing.T) {
	t.Parallel()

	repo := newFakeCartRepo()
	info := repo.addListing(10, "10.00")
	svc := newTestService(t, repo)
	userID := uuid.New()

	if _, err := svc.SetLine(context.Background(), userID, info.ID, 1); err != nil {
		t.Fatalf("set: %v", err)
	}

	cart, err := svc.RemoveLine(context.Background(), userID, info.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}

	_, err = svc.RemoveLine(context.Background(), userID, info.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("second remove should be not found: %v", err)
	}
}

func newTestService(t *testing.T, repo CartRepository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// racingCartRepo makes the first insert lose to a concurrent one: the
// winner's row lands in the store and the insert fails on the partial
// unique index.
type racingCartRepo struct {
	*fakeCartRepo
	raced bool
}

func (r *racingCartRepo) WithTx(tx *gorm.DB) CartRepository { return r }

func (r *racingCartRepo) CreateCart(ctx context.Context, order *models.Order) error {
	if !r.raced {
		r.raced = true
		winner := &models.Order{UserID: order.UserID}
		if err := r.fakeCartRepo.CreateCart(ctx, winner); err != nil {
			return err
		}
		return gorm.ErrDuplicatedKey
	}
	return r.fakeCartRepo.CreateCart(ctx, order)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCartRepo struct {
	carts    map[uuid.UUID]*models.Order
	listings map[uuid.UUID]*models.ProductInfo
	items    map[uuid.UUID]*models.OrderItem
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		carts:    map[uuid.UUID]*models.Order{},
		listings: map[uuid.UUID]*models.ProductInfo{},
		items:    map[uuid.UUID]*models.OrderItem{},
	}
}

func (f *fakeCartRepo) addListing(quantity int, price string) *models.ProductInfo {
	info := &models.ProductInfo{
		ID:       uuid.New(),
		Quantity: quantity,
		Price:    decimal.RequireFromString(price),
	}
	f.listings[info.ID] = info
	return info
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) CartRepository { return f }

func (f *fakeCartRepo) FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	cart, ok := f.carts[userID]
	if !ok || cart.Status != enums.OrderStatusCart {
		return nil, gorm.ErrRecordNotFound
	}
	loaded := *cart
	loaded.Items = nil
	for _, item := range f.items {
		if item.OrderID == cart.ID {
			loaded.Items = append(loaded.Items, *item)
		}
	}
	return &loaded, nil
}

func (f *fakeCartRepo) FindCartByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	cart, ok := f.carts[userID]
	if !ok || cart.Status != enums.OrderStatusCart {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (f *fakeCartRepo) CreateCart(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	order.Status = enums.OrderStatusCart
	f.carts[order.UserID] = order
	return nil
}

func (f *fakeCartRepo) FindListingForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	info, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return info, nil
}

func (f *fakeCartRepo) FindItem(ctx context.Context, orderID, productInfoID uuid.UUID) (*models.OrderItem, error) {
	for _, item := range f.items {
		if item.OrderID == orderID && item.ProductInfoID == productInfoID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) CreateItem(ctx context.Context, item *models.OrderItem) error {
	item.ID = uuid.New()
	f.items[item.ID] = item
	return nil
}

func (f *fakeCartRepo) SaveItem(ctx context.Context, item *models.OrderItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeCartRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

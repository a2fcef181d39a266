package orders

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

func TestConfirmEmptyCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &stubOrderRepo{cart: &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusCart}}
	svc := newTestService(t, repo, &stubContacts{contact: &models.Contact{ID: uuid.New()}}, Config{})

	_, err := svc.Confirm(context.Background(), userID, uuid.New(), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfirmForeignContactReadsAsValidation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &stubOrderRepo{
		cart:  &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusCart},
		items: 2,
	}
	svc := newTestService(t, repo, &stubContacts{err: gorm.ErrRecordNotFound}, Config{})

	_, err := svc.Confirm(context.Background(), userID, uuid.New(), "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("foreign contact must read as validation, got %v", err)
	}
}

func TestConfirmPlacesOrderAndNotifies(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	contact := &models.Contact{ID: uuid.New(), UserID: userID}
	repo := &stubOrderRepo{
		cart:  &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusCart},
		items: 1,
	}
	notify := &captureNotify{}
	svc := newTestServiceWithNotify(t, repo, &stubContacts{contact: contact}, notify, Config{})

	placed, err := svc.Confirm(context.Background(), userID, contact.ID, " ASAP please ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placed.Status != enums.OrderStatusNew {
		t.Fatalf("expected status new, got %s", placed.Status)
	}
	if placed.ContactID == nil || *placed.ContactID != contact.ID {
		t.Fatal("contact must be attached")
	}
	if placed.Comment != "ASAP please" {
		t.Fatalf("unexpected comment %q", placed.Comment)
	}
	if !notify.placed {
		t.Fatal("expected placement notification")
	}
}

func TestSetStatusEnforcesTransitionTable(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: enums.OrderStatusNew}
	repo := &stubOrderRepo{order: order}
	svc := newTestService(t, repo, &stubContacts{}, Config{})

	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusShipped); err == nil {
		t.Fatal("new -> shipped must be rejected")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("new -> confirmed should pass: %v", err)
	}
	if updated.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status not applied: %s", updated.Status)
	}
}

func TestSetStatusPermissiveOverwrites(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: enums.OrderStatusShipped}
	repo := &stubOrderRepo{order: order}
	svc := newTestService(t, repo, &stubContacts{}, Config{PermissiveStatus: true})

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusNew)
	if err != nil {
		t.Fatalf("permissive mode must accept any member: %v", err)
	}
	if updated.Status != enums.OrderStatusNew {
		t.Fatalf("status not applied: %s", updated.Status)
	}
}

func TestSetStatusRejectsCartTarget(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubOrderRepo{}, &stubContacts{}, Config{PermissiveStatus: true})

	_, err := svc.SetStatus(context.Background(), uuid.New(), enums.OrderStatusCart)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetStatusUnknownOrder(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubOrderRepo{}, &stubContacts{}, Config{})

	_, err := svc.SetStatus(context.Background(), uuid.New(), enums.OrderStatusConfirmed)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListForShopOwnerFiltersAndRecomputes(t *testing.T) {
	t.Parallel()

	myShop := uuid.New()
	otherShop := uuid.New()
	order := models.Order{
		ID:     uuid.New(),
		Status: enums.OrderStatusNew,
		Items: []models.OrderItem{
			{
				Quantity:    2,
				Price:       decimal.RequireFromString("10.00"),
				ProductInfo: &models.ProductInfo{ShopID: myShop, Name: "Mine"},
			},
			{
				Quantity:    5,
				Price:       decimal.RequireFromString("99.00"),
				ProductInfo: &models.ProductInfo{ShopID: otherShop, Name: "Theirs"},
			},
		},
	}
	repo := &stubOrderRepo{touching: []models.Order{order}}
	svc := newTestService(t, repo, &stubContacts{}, Config{})

	list, err := svc.ListForShopOwner(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 1 || len(list.Orders) != 1 {
		t.Fatalf("expected one order, got %+v", list)
	}
	view := list.Orders[0]
	if len(view.Items) != 1 || view.Items[0].ProductInfo.Name != "Mine" {
		t.Fatalf("foreign shop lines must be filtered out: %+v", view.Items)
	}
	if view.TotalQuantity != 2 {
		t.Fatalf("partial quantity must be recomputed, got %d", view.TotalQuantity)
	}
	if !view.TotalCost.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("partial total must be recomputed, got %s", view.TotalCost)
	}
}

func TestListForShopOwnerWithoutShop(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{noShop: true}
	svc := newTestService(t, repo, &stubContacts{}, Config{})

	list, err := svc.ListForShopOwner(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 0 {
		t.Fatalf("expected empty feed, got %+v", list)
	}
}

func newTestService(t *testing.T, repo *stubOrderRepo, contacts *stubContacts, cfg Config) Service {
	return newTestServiceWithNotify(t, repo, contacts, &captureNotify{}, cfg)
}

func newTestServiceWithNotify(t *testing.T, repo *stubOrderRepo, contacts *stubContacts, notify *captureNotify, cfg Config) Service {
	t.Helper()
	svc, err := NewService(repo, contacts, stubUsers{}, repo, stubTxRunner{}, notify, nil, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderRepo struct {
	cart     *models.Order
	order    *models.Order
	items    int64
	touching []models.Order
	noShop   bool
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) OrderRepository { return s }

func (s *stubOrderRepo) FindCartByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubOrderRepo) CountItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return s.items, nil
}

func (s *stubOrderRepo) Save(ctx context.Context, order *models.Order) error { return nil }

func (s *stubOrderRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	if s.cart != nil && s.cart.ID == id && s.cart.Status != enums.OrderStatusCart {
		return s.cart, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order != nil && s.order.ID == id {
		return s.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrderRepo) ListTouchingShop(ctx context.Context, shopID uuid.UUID) ([]models.Order, error) {
	return s.touching, nil
}

// stubOrderRepo doubles as the shop loader.
func (s *stubOrderRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	if s.noShop {
		return nil, gorm.ErrRecordNotFound
	}
	if len(s.touching) > 0 && len(s.touching[0].Items) > 0 {
		return &models.Shop{ID: s.touching[0].Items[0].ProductInfo.ShopID, OwnerID: ownerID}, nil
	}
	return &models.Shop{ID: uuid.New(), OwnerID: ownerID}, nil
}

type stubContacts struct {
	contact *models.Contact
	err     error
}

func (s *stubContacts) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.contact == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.contact, nil
}

type stubUsers struct{}

func (stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Email: "buyer@example.com"}, nil
}

type captureNotify struct {
	placed        bool
	statusChanged bool
}

func (c *captureNotify) RegistrationToken(ctx context.Context, user *models.User, token string) {}
func (c *captureNotify) OrderPlaced(ctx context.Context, order *models.Order, buyer *models.User) {
	c.placed = true
}
func (c *captureNotify) OrderStatusChanged(ctx context.Context, order *models.Order, buyer *models.User) {
	c.statusChanged = true
}

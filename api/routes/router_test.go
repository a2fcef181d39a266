package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/procureline/procureline-backend/internal/auth"
	catalogsvc "github.com/procureline/procureline-backend/internal/catalog"
	contactsvc "github.com/procureline/procureline-backend/internal/contacts"
	importsvc "github.com/procureline/procureline-backend/internal/importer"
	ordersvc "github.com/procureline/procureline-backend/internal/orders"
	shopsvc "github.com/procureline/procureline-backend/internal/shops"
	pkgauth "github.com/procureline/procureline-backend/pkg/auth"
	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
	"github.com/procureline/procureline-backend/pkg/logger"
	"github.com/procureline/procureline-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(ctx context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input authsvc.RegisterInput) (*models.User, error) {
	return &models.User{}, nil
}
func (stubAuthService) ConfirmEmail(ctx context.Context, email, token string) error { return nil }
func (stubAuthService) Login(ctx context.Context, email, password string) (*authsvc.LoginResult, error) {
	return &authsvc.LoginResult{Token: "token", User: &models.User{}}, nil
}
func (stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) List(ctx context.Context, filter catalogsvc.ListFilter, params pagination.Params) (*catalogsvc.ListingPage, error) {
	return &catalogsvc.ListingPage{}, nil
}
func (stubCatalogService) Get(ctx context.Context, id uuid.UUID) (*models.ProductInfo, error) {
	return &models.ProductInfo{}, nil
}
func (stubCatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return nil, nil
}

type stubCartService struct{}

func (stubCartService) CartFor(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	return &models.Order{UserID: userID}, nil
}
func (stubCartService) SetLine(ctx context.Context, userID, productInfoID uuid.UUID, quantity int) (*models.Order, error) {
	return &models.Order{UserID: userID}, nil
}
func (stubCartService) RemoveLine(ctx context.Context, userID, productInfoID uuid.UUID) (*models.Order, error) {
	return &models.Order{UserID: userID}, nil
}

type stubContactService struct{}

func (stubContactService) List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	return nil, nil
}
func (stubContactService) Get(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error) {
	return &models.Contact{}, nil
}
func (stubContactService) Create(ctx context.Context, userID uuid.UUID, input contactsvc.ContactInput) (*models.Contact, error) {
	return &models.Contact{}, nil
}
func (stubContactService) Update(ctx context.Context, userID, contactID uuid.UUID, input contactsvc.ContactInput) (*models.Contact, error) {
	return &models.Contact{}, nil
}
func (stubContactService) Delete(ctx context.Context, userID, contactID uuid.UUID) error { return nil }

type stubOrderService struct{}

func (stubOrderService) Confirm(ctx context.Context, userID, contactID uuid.UUID, comment string) (*models.Order, error) {
	return &models.Order{UserID: userID}, nil
}
func (stubOrderService) ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}
func (stubOrderService) GetOwn(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{UserID: userID}, nil
}
func (stubOrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return &models.Order{Status: status}, nil
}
func (stubOrderService) ListForShopOwner(ctx context.Context, ownerID uuid.UUID) (*ordersvc.PartnerOrderList, error) {
	return &ordersvc.PartnerOrderList{}, nil
}

type stubShopService struct{}

func (stubShopService) Profile(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	return &models.Shop{OwnerID: ownerID}, nil
}
func (stubShopService) UpdateProfile(ctx context.Context, ownerID uuid.UUID, input shopsvc.UpdateProfileInput) (*models.Shop, error) {
	return &models.Shop{OwnerID: ownerID}, nil
}

type stubImportService struct{}

func (stubImportService) Import(ctx context.Context, ownerID uuid.UUID, doc *importsvc.Document) (*importsvc.ImportResult, error) {
	return &importsvc.ImportResult{}, nil
}

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "procureline-test", ExpirationMinutes: 15}
	cfg.Import.MaxPayloadBytes = 1 << 20
	cfg.Import.FetchTimeout = time.Second

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})

	handler := NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Auth:     stubAuthService{},
		Catalog:  stubCatalogService{},
		Cart:     stubCartService{},
		Contacts: stubContactService{},
		Orders:   stubOrderService{},
		Shops:    stubShopService{},
		Importer: stubImportService{},
		Resolver: importsvc.NewResolver(cfg.Import),
	})
	return handler, cfg.JWT
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole, verified bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:        uuid.New(),
		Role:          role,
		EmailVerified: verified,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthAndPublicCatalog(t *testing.T) {
	handler, _ := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/api/v1/products/", "/api/v1/products/categories"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouterRoleGates(t *testing.T) {
	handler, jwtCfg := testRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		role   enums.UserRole
		status int
	}{
		{"buyer blocked from partner", http.MethodGet, "/api/v1/partner/profile", enums.UserRoleBuyer, http.StatusForbidden},
		{"shop reaches partner", http.MethodGet, "/api/v1/partner/profile", enums.UserRoleShop, http.StatusOK},
		{"shop blocked from admin", http.MethodPut, "/api/admin/v1/orders/" + uuid.NewString() + "/status", enums.UserRoleShop, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, tc.role, true))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestRouterCartNeedsVerifiedEmail(t *testing.T) {
	handler, jwtCfg := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleBuyer, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unverified buyer, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleBuyer, true))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for verified buyer, got %d", rec.Code)
	}
}

func TestRouterRejectsMissingToken(t *testing.T) {
	handler, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

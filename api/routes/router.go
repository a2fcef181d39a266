package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/procureline/procureline-backend/api/controllers"
	"github.com/procureline/procureline-backend/api/middleware"
	authsvc "github.com/procureline/procureline-backend/internal/auth"
	cartsvc "github.com/procureline/procureline-backend/internal/cart"
	catalogsvc "github.com/procureline/procureline-backend/internal/catalog"
	contactsvc "github.com/procureline/procureline-backend/internal/contacts"
	importsvc "github.com/procureline/procureline-backend/internal/importer"
	ordersvc "github.com/procureline/procureline-backend/internal/orders"
	shopsvc "github.com/procureline/procureline-backend/internal/shops"
	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/db"
	"github.com/procureline/procureline-backend/pkg/enums"
	"github.com/procureline/procureline-backend/pkg/logger"
	"github.com/procureline/procureline-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface is wired from.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Auth     authsvc.Service
	Catalog  catalogsvc.Service
	Cart     cartsvc.Service
	Contacts contactsvc.Service
	Orders   ordersvc.Service
	Shops    shopsvc.Service
	Importer importsvc.Service
	Resolver *importsvc.Resolver

	Metrics prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// A typed nil store must not reach the limiter, it would fail the
	// store == nil pass-through check.
	loginLimiter := middleware.AuthRateLimit(loginPolicy, nil, logg)
	registerLimiter := middleware.AuthRateLimit(registerPolicy, nil, logg)
	if deps.Redis != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		registerLimiter = middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)
	}

	healthDeps := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		healthDeps["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(registerLimiter).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(registerLimiter).Post("/confirm", controllers.AuthConfirmEmail(deps.Auth, logg))
		r.With(loginLimiter).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(deps.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(deps.Catalog, logg))
		r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
		r.Get("/{productInfoId}", controllers.CatalogGet(deps.Catalog, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Use(middleware.RequireVerifiedEmail(logg))
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartSetLine(deps.Cart, logg))
			r.Delete("/items/{productInfoId}", controllers.CartRemoveLine(deps.Cart, logg))
		})

		r.Route("/api/v1/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactsList(deps.Contacts, logg))
			r.Post("/", controllers.ContactsCreate(deps.Contacts, logg))
			r.Get("/{contactId}", controllers.ContactsGet(deps.Contacts, logg))
			r.Put("/{contactId}", controllers.ContactsUpdate(deps.Contacts, logg))
			r.Delete("/{contactId}", controllers.ContactsDelete(deps.Contacts, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.With(middleware.RequireVerifiedEmail(logg)).Post("/", controllers.OrdersConfirm(deps.Orders, logg))
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(deps.Orders, logg))
		})

		r.Route("/api/v1/partner", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleShop), logg))
			r.Post("/import", controllers.PartnerImport(deps.Importer, deps.Resolver, cfg.Import.MaxPayloadBytes, logg))
			r.Get("/profile", controllers.PartnerProfile(deps.Shops, logg))
			r.Put("/profile", controllers.PartnerProfileUpdate(deps.Shops, logg))
			r.Get("/orders", controllers.PartnerOrders(deps.Orders, logg))
		})

		r.Route("/api/admin/v1/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Put("/{orderId}/status", controllers.AdminOrderSetStatus(deps.Orders, logg))
		})
	})

	return r
}

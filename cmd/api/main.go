package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/procureline/procureline-backend/api/routes"
	"github.com/procureline/procureline-backend/internal/auth"
	"github.com/procureline/procureline-backend/internal/cart"
	"github.com/procureline/procureline-backend/internal/catalog"
	"github.com/procureline/procureline-backend/internal/contacts"
	"github.com/procureline/procureline-backend/internal/importer"
	"github.com/procureline/procureline-backend/internal/notifications"
	"github.com/procureline/procureline-backend/internal/orders"
	"github.com/procureline/procureline-backend/internal/shops"
	"github.com/procureline/procureline-backend/internal/users"
	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/db"
	"github.com/procureline/procureline-backend/pkg/logger"
	"github.com/procureline/procureline-backend/pkg/metrics"
	"github.com/procureline/procureline-backend/pkg/migrate"
	"github.com/procureline/procureline-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, dbErr := db.New(ctx, cfg.DB, logg)
	if dbErr != nil {
		return dbErr
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if migrateErr := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); migrateErr != nil {
		return migrateErr
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured, auth rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	business := metrics.NewBusinessMetrics(registry)

	var mailer notifications.Mailer
	if cfg.SMTP.Enabled() {
		mailer = notifications.NewSMTPMailer(cfg.SMTP)
	} else {
		mailer = notifications.NewLogMailer(logg)
	}
	notify := notifications.NewService(mailer, cfg.SMTP, logg)

	gdb := dbClient.DB()

	authService, err := auth.NewService(
		users.NewRepository(gdb),
		auth.NewRepository(gdb),
		dbClient,
		notify,
		cfg.JWT,
		cfg.Password,
	)
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gdb))
	if err != nil {
		return err
	}

	cartService, err := cart.NewService(cart.NewRepository(gdb), dbClient)
	if err != nil {
		return err
	}

	contactService, err := contacts.NewService(contacts.NewRepository(gdb), dbClient)
	if err != nil {
		return err
	}

	shopService, err := shops.NewService(shops.NewRepository(gdb), dbClient)
	if err != nil {
		return err
	}

	importService, err := importer.NewService(
		importer.NewRepository(gdb),
		shops.NewRepository(gdb),
		dbClient,
		business,
	)
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(
		orders.NewRepository(gdb),
		contacts.NewRepository(gdb),
		users.NewRepository(gdb),
		shops.NewRepository(gdb),
		dbClient,
		notify,
		business,
		orders.Config{PermissiveStatus: cfg.FeatureFlags.PermissiveStatus},
	)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Auth:     authService,
		Catalog:  catalogService,
		Cart:     cartService,
		Contacts: contactService,
		Orders:   orderService,
		Shops:    shopService,
		Importer: importService,
		Resolver: importer.NewResolver(cfg.Import),
		Metrics:  registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			return serveErr
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

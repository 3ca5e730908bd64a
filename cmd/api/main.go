package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/nexusfashion/nexus-backend/api/routes"
	"github.com/nexusfashion/nexus-backend/internal/auth"
	"github.com/nexusfashion/nexus-backend/internal/cart"
	"github.com/nexusfashion/nexus-backend/internal/catalog"
	checkoutsvc "github.com/nexusfashion/nexus-backend/internal/checkout"
	"github.com/nexusfashion/nexus-backend/internal/commissions"
	"github.com/nexusfashion/nexus-backend/internal/orders"
	"github.com/nexusfashion/nexus-backend/internal/payouts"
	"github.com/nexusfashion/nexus-backend/internal/reports"
	"github.com/nexusfashion/nexus-backend/internal/users"
	"github.com/nexusfashion/nexus-backend/internal/wishlist"
	"github.com/nexusfashion/nexus-backend/pkg/auth/session"
	"github.com/nexusfashion/nexus-backend/pkg/config"
	"github.com/nexusfashion/nexus-backend/pkg/db"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
	"github.com/nexusfashion/nexus-backend/pkg/migrate"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager) (routes.Services, error) {
	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	cartRepo := cart.NewRepository(gormDB)
	cartSvc, err := cart.NewService(cartRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	commissionsSvc, err := commissions.NewService(commissions.NewRepository(gormDB), dbClient, outboxSvc, cfg.Commission)
	if err != nil {
		return routes.Services{}, err
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, commissionsSvc)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutSvc, err := checkoutsvc.NewService(
		checkoutsvc.NewRepository(gormDB),
		cartRepo,
		ordersRepo,
		commissionsSvc,
		dbClient,
		outboxSvc,
		cfg.Commission,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	payoutsSvc, err := payouts.NewService(payouts.NewRepository(gormDB), commissions.NewRepository(gormDB), dbClient, outboxSvc, cfg.Commission)
	if err != nil {
		return routes.Services{}, err
	}

	reportsSvc, err := reports.NewService(reports.NewRepository(gormDB), dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:        authSvc,
		Catalog:     catalogSvc,
		Cart:        cartSvc,
		Checkout:    checkoutSvc,
		Wishlist:    wishlistSvc,
		Orders:      ordersSvc,
		Commissions: commissionsSvc,
		Payouts:     payoutsSvc,
		Reports:     reportsSvc,
	}, nil
}

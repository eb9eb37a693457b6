package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marsos-sa/marketplace-backend/api/routes"
	"github.com/marsos-sa/marketplace-backend/internal/cart"
	"github.com/marsos-sa/marketplace-backend/internal/checkout"
	"github.com/marsos-sa/marketplace-backend/internal/coupons"
	"github.com/marsos-sa/marketplace-backend/internal/notifications"
	"github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/internal/pricing"
	"github.com/marsos-sa/marketplace-backend/internal/products"
	"github.com/marsos-sa/marketplace-backend/internal/users"
	"github.com/marsos-sa/marketplace-backend/pkg/config"
	"github.com/marsos-sa/marketplace-backend/pkg/db"
	"github.com/marsos-sa/marketplace-backend/pkg/gopay"
	"github.com/marsos-sa/marketplace-backend/pkg/hyperpay"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
	"github.com/marsos-sa/marketplace-backend/pkg/migrate"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox"
	"github.com/marsos-sa/marketplace-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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
	cfg.Service.Kind = "api"

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

	gopayClient, err := gopay.NewClient(cfg.GoPay)
	if err != nil {
		logg.Error(context.Background(), "failed to create gopay client", err)
		os.Exit(1)
	}
	hyperpayClient, err := hyperpay.NewClient(cfg.HyperPay)
	if err != nil {
		logg.Error(context.Background(), "failed to create hyperpay client", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, cfg.Checkout.SadadDeadline())
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	couponValidator := coupons.NewStaticValidator()
	cartRepo := cart.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cartRepo, dbClient, products.NewRepository(dbClient.DB()), pricing.NewEngine(), couponValidator)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartRepo,
		ordersRepo,
		ordersService,
		users.NewRepository(dbClient.DB()),
		couponValidator,
		gopayClient,
		hyperpayClient,
		notificationsService,
		outboxService,
		dbClient,
		logg,
		cfg.Checkout.SadadExpiry(),
		"api",
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			cartService,
			checkoutService,
			ordersService,
			notificationsService,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

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

	"github.com/dmarquezg/storefront-backend/api/routes"
	authsvc "github.com/dmarquezg/storefront-backend/internal/auth"
	"github.com/dmarquezg/storefront-backend/internal/cart"
	"github.com/dmarquezg/storefront-backend/internal/categories"
	checkoutsvc "github.com/dmarquezg/storefront-backend/internal/checkout"
	"github.com/dmarquezg/storefront-backend/internal/merchants"
	"github.com/dmarquezg/storefront-backend/internal/orders"
	"github.com/dmarquezg/storefront-backend/internal/payments"
	"github.com/dmarquezg/storefront-backend/internal/products"
	"github.com/dmarquezg/storefront-backend/internal/sessions"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	"github.com/dmarquezg/storefront-backend/pkg/config"
	"github.com/dmarquezg/storefront-backend/pkg/db"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/mercadopago"
	"github.com/dmarquezg/storefront-backend/pkg/metrics"
	"github.com/dmarquezg/storefront-backend/pkg/migrate"
	"github.com/dmarquezg/storefront-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mpClient, err := mercadopago.NewClient(context.Background(), cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment client", err)
		os.Exit(1)
	}

	sessionProvider, err := sessions.NewProvider(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session provider", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	storeRepo := stores.NewRepository(gormDB)
	guard, err := stores.NewGuard(storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store guard", err)
		os.Exit(1)
	}

	storeService, err := stores.NewService(storeRepo, redisClient, cfg.Session.StoreSnapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	categoryService, err := categories.NewService(categories.NewRepository(gormDB), guard)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(gormDB)
	productService, err := products.NewService(productRepo, guard)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	broadcaster, err := cart.NewRedisBroadcaster(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart broadcaster", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, storeRepo, productRepo, broadcaster, cfg.Session.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(gormDB)
	orderService, err := orders.NewService(orderRepo, guard)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentRepo := payments.NewRepository(gormDB)
	returnURL := cfg.App.BaseURL + cfg.MercadoPago.ReturnPath
	checkoutService, err := checkoutsvc.NewService(cartRepo, orderRepo, paymentRepo, storeRepo, dbClient, mpClient, broadcaster, returnURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reconciler, err := payments.NewReconciler(mpClient, orderRepo, paymentRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconciler", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(merchants.NewRepository(gormDB), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

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
			redisClient,
			registry,
			httpMetrics,
			sessionProvider,
			authService,
			storeService,
			categoryService,
			productService,
			cartService,
			checkoutService,
			orderService,
			reconciler,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

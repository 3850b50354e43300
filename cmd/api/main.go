package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/greenbasket/greenbasket-backend/api/routes"
	"github.com/greenbasket/greenbasket-backend/internal/cart"
	"github.com/greenbasket/greenbasket-backend/internal/categories"
	"github.com/greenbasket/greenbasket-backend/internal/notifications"
	"github.com/greenbasket/greenbasket-backend/internal/orders"
	"github.com/greenbasket/greenbasket-backend/internal/payments"
	"github.com/greenbasket/greenbasket-backend/internal/procurement"
	"github.com/greenbasket/greenbasket-backend/internal/products"
	"github.com/greenbasket/greenbasket-backend/internal/returns"
	"github.com/greenbasket/greenbasket-backend/internal/users"
	"github.com/greenbasket/greenbasket-backend/internal/vendors"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/metrics"
	"github.com/greenbasket/greenbasket-backend/pkg/migrate"
	"github.com/greenbasket/greenbasket-backend/pkg/redis"
	"github.com/greenbasket/greenbasket-backend/pkg/storage/gcs"
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

	storageClient, err := gcs.NewClient(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	vendorPricePolicy, err := enums.ParseVendorPricePolicy(cfg.Cart.VendorPricePolicy)
	if err != nil {
		logg.Error(context.Background(), "invalid vendor price policy", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, storageClient, vendorPricePolicy)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, storageClient, httpMetrics, registry, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	storageClient *gcs.Client,
	vendorPricePolicy enums.VendorPricePolicy,
) (routes.Services, error) {
	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	categoryRepo := categories.NewRepository(gormDB)
	vendorRepo := vendors.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	returnRepo := returns.NewRepository(gormDB)
	purchaseOrderRepo := procurement.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)

	stock := products.NewStockAdjuster()

	userService, err := users.NewService(userRepo, cfg.JWT, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		return routes.Services{}, err
	}
	categoryService, err := categories.NewService(categoryRepo, storageClient, logg)
	if err != nil {
		return routes.Services{}, err
	}
	productService, err := products.NewService(productRepo, categoryService)
	if err != nil {
		return routes.Services{}, err
	}
	vendorService, err := vendors.NewService(vendorRepo, storageClient, logg)
	if err != nil {
		return routes.Services{}, err
	}
	cartService, err := cart.NewService(cartRepo, productRepo, dbClient, vendorPricePolicy)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := orders.NewService(orderRepo, cartRepo, stock, notificationService, userService, dbClient, vendorPricePolicy)
	if err != nil {
		return routes.Services{}, err
	}
	paymentService, err := payments.NewService(paymentRepo, orderRepo)
	if err != nil {
		return routes.Services{}, err
	}
	returnService, err := returns.NewService(returnRepo, orderRepo, notificationService, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	procurementService, err := procurement.NewService(purchaseOrderRepo, vendorRepo, productRepo, stock, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Users:         userService,
		Cart:          cartService,
		Products:      productService,
		Categories:    categoryService,
		Vendors:       vendorService,
		Orders:        orderService,
		Payments:      paymentService,
		Returns:       returnService,
		Procurement:   procurementService,
		Notifications: notificationService,
	}, nil
}

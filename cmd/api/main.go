package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmoralesp/giftshop-backend/api/controllers"
	"github.com/rmoralesp/giftshop-backend/api/routes"
	authsvc "github.com/rmoralesp/giftshop-backend/internal/auth"
	"github.com/rmoralesp/giftshop-backend/internal/cart"
	"github.com/rmoralesp/giftshop-backend/internal/catalog"
	checkoutsvc "github.com/rmoralesp/giftshop-backend/internal/checkout"
	"github.com/rmoralesp/giftshop-backend/internal/checkout/reconcile"
	"github.com/rmoralesp/giftshop-backend/internal/clients"
	"github.com/rmoralesp/giftshop-backend/internal/discounts"
	"github.com/rmoralesp/giftshop-backend/internal/orders"
	"github.com/rmoralesp/giftshop-backend/pkg/auth/session"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	"github.com/rmoralesp/giftshop-backend/pkg/db"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/metrics"
	"github.com/rmoralesp/giftshop-backend/pkg/migrate"
	"github.com/rmoralesp/giftshop-backend/pkg/outbox"
	"github.com/rmoralesp/giftshop-backend/pkg/redis"
	"github.com/rmoralesp/giftshop-backend/pkg/storage/gcs"
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	grantRepo := discounts.NewRepository(gormDB)
	saleRepo := orders.NewRepository(gormDB)
	taskRepo := reconcile.NewRepository(gormDB)
	clientRepo := clients.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	discountService, err := discounts.NewService(grantRepo, cartRepo, saleRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(saleRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(
		cartRepo,
		cartService,
		discountService,
		saleRepo,
		taskRepo,
		outboxSvc,
		gcsClient,
		dbClient,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	authService, err := authsvc.NewService(clientRepo, sessionManager, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Sessions: sessionManager,
			Redis:    redisClient,
			Ready: controllers.ReadyDeps{
				DB:     dbClient,
				Redis:  redisClient,
				Bucket: gcsClient,
			},
			AuthService:     authService,
			CartService:     cartService,
			DiscountService: discountService,
			CheckoutService: checkoutService,
			OrderService:    orderService,
			CheckoutMetrics: checkoutMetrics,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

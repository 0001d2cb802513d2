package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/rmoralesp/giftshop-backend/internal/cart"
	"github.com/rmoralesp/giftshop-backend/internal/catalog"
	"github.com/rmoralesp/giftshop-backend/internal/checkout/reconcile"
	"github.com/rmoralesp/giftshop-backend/internal/discounts"
	"github.com/rmoralesp/giftshop-backend/internal/orders"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	"github.com/rmoralesp/giftshop-backend/pkg/db"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/migrate"
	"github.com/rmoralesp/giftshop-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
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

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	grantRepo := discounts.NewRepository(gormDB)
	saleRepo := orders.NewRepository(gormDB)
	taskRepo := reconcile.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

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

	worker, err := reconcile.NewWorker(
		taskRepo,
		discountService,
		cartService,
		saleRepo,
		outboxSvc,
		dbClient,
		cfg.Reconciler,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting settlement reconciler")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler shutting down gracefully")
}

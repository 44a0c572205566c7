package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mercado/internal/config"
	"mercado/internal/models"
	"mercado/internal/repositories"
	"mercado/internal/services"
	"mercado/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	if _, err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// --- Database ---
	db, err := repositories.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := repositories.AutoMigrate(db); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	// --- Redis product cache (optional) ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, product cache will fall back to the database", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
	}

	// --- Domain events ---
	events, closeEvents, err := newEventPublisher(cfg)
	if err != nil {
		slog.Error("failed to initialize event publisher", "driver", cfg.EventsDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeEvents(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}()

	a := newApp(cfg, db, rdb, events)
	if err := bootstrap(context.Background(), cfg, a); err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	// --- Start HTTP Server ---
	slog.Info("starting server", "port", cfg.AppPort, "db_driver", cfg.DBDriver, "events_driver", cfg.EventsDriver)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.app.Listen(cfg.AppPort); err != nil {
			slog.Error("server stopped", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("shutting down server")

	if err := a.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	slog.Info("server gracefully stopped")
}

// seedProducts adds a small demo catalog when it is empty.
func seedProducts(ctx context.Context, products *services.ProductService) error {
	existing, err := products.GetAllProducts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.NewFromInt(1200), Stock: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.NewFromInt(75), Stock: 25},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.50"), Stock: 50},
	}
	for i := range seed {
		if err := products.CreateProduct(ctx, &seed[i]); err != nil {
			return err
		}
		slog.InfoContext(ctx, "seeded product", "name", seed[i].Name, "product_id", seed[i].ID)
	}
	return nil
}

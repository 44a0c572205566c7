package main

import (
	"context"
	"fmt"
	"time"

	"mercado/internal/config"
	"mercado/internal/handlers"
	"mercado/internal/metrics"
	"mercado/internal/middleware"
	"mercado/internal/realtime"
	"mercado/internal/repositories"
	"mercado/internal/services"
	"mercado/pkg/kafka"
	"mercado/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// application is the wired HTTP service.
type application struct {
	app      *fiber.App
	auth     *services.AuthService
	products *services.ProductService
	hub      *realtime.Hub
}

// newApp wires repositories, services and handlers. rdb may be nil, which
// disables the product cache.
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, events services.EventPublisher) *application {
	// --- Repositories ---
	var productRepo repositories.ProductRepository = repositories.NewGORMProductRepository(db)
	if rdb != nil {
		productRepo = repositories.NewCachedProductRepository(productRepo, rdb, cfg.ProductCacheTTL)
	}
	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	// --- Services ---
	hub := realtime.NewHub(32)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	productService := services.NewProductService(productRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, hub)
	cartService := services.NewCartService(cartRepo, productService)
	orderService := services.NewOrderService(orderRepo, txManager, notificationService, events)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "mercado",
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		checks := fiber.Map{"database": "up"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			checks["database"] = "down"
			status = fiber.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "up"
			if err := rdb.Ping(c.UserContext()).Err(); err != nil {
				// The product cache degrades to the database.
				checks["redis"] = "down"
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", metrics.Handler())

	handlers.NewRealtimeHandler(authService, hub).RegisterRoutes(app)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewCartHandler(cartService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)
	handlers.NewNotificationHandler(notificationService).RegisterRoutes(protected)

	return &application{
		app:      app,
		auth:     authService,
		products: productService,
		hub:      hub,
	}
}

// newEventPublisher connects the configured broker. The returned close
// function is never nil.
func newEventPublisher(cfg *config.Config) (services.EventPublisher, func() error, error) {
	switch cfg.EventsDriver {
	case "", "none":
		return services.NoopPublisher{}, func() error { return nil }, nil
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, fmt.Errorf("KAFKA_BROKERS is empty")
		}
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		return producer, producer.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported events driver %q", cfg.EventsDriver)
	}
}

// bootstrap creates the configured admin account and the demo catalog.
func bootstrap(ctx context.Context, cfg *config.Config, a *application) error {
	if err := a.auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	if cfg.SeedProducts {
		return seedProducts(ctx, a.products)
	}
	return nil
}

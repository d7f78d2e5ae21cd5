// Package app wires configuration, storage, messaging and HTTP routes into a server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/pkg/kafka"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const kafkaInboxSize = 256

// App is the assembled HTTP server and the resources it owns.
type App struct {
	Fiber *fiber.App

	db        *gorm.DB
	publisher events.Publisher
	closers   []io.Closer
	log       zerolog.Logger
}

// New connects every backing service named by cfg and registers the routes.
func New(cfg config.Config, log zerolog.Logger) (*App, error) {
	db, err := database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogSQL:          log.GetLevel() <= zerolog.DebugLevel,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	a := &App{db: db, log: log}

	publisher, err := a.newPublisher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.publisher = publisher

	productCache, err := a.newProductCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// --- Repositories ---
	store := repositories.NewGORMStore(db)

	// --- Services ---
	authService := services.NewAuthService(store.Users(), cfg.JWT, log)
	userService := services.NewUserService(store.Users(), log)
	productService := services.NewProductService(store.Products(), productCache, storage.NewLocalImageStore(cfg.Media.Root), log)
	cartService := services.NewCartService(store.Carts(), store.Products(), log)
	checkoutService := services.NewCheckoutService(store, publisher, productCache, cfg.ServiceName, log)
	orderService := services.NewOrderService(store.Orders(), publisher, cfg.Orders.StrictTransitions, cfg.ServiceName, log)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	productHandler := handlers.NewProductHandler(productService, log)
	cartHandler := handlers.NewCartHandler(cartService, log)
	orderHandler := handlers.NewOrderHandler(orderService, checkoutService, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		BodyLimit:    storage.MaxImageSize + 1<<20,
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", a.health)

	api := app.Group("/api")

	// Public routes
	var tokenMiddleware []fiber.Handler
	if cfg.LoginRateLimit > 0 {
		tokenMiddleware = append(tokenMiddleware, limiter.New(limiter.Config{
			Max:        cfg.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts"})
			},
		}))
	}
	authHandler.RegisterRoutes(api, tokenMiddleware...)
	productHandler.RegisterRoutes(api)

	// Authenticated routes
	protected := api.Group("", middleware.AuthRequired(authService, log))
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	admin := protected.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	userHandler.RegisterRoutes(admin.Group("/users", middleware.RequireRole(auth.RoleSuperuser)))

	a.Fiber = app
	return a, nil
}

func (a *App) newPublisher(cfg config.Config) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "amqp":
		client, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.Events.RabbitMQURL,
			Exchange: cfg.Events.Exchange,
			Queue:    cfg.Events.Queue,
		}, a.log)
		if err != nil {
			return nil, err
		}
		if cfg.Events.AuditConsumer {
			if err := client.ConsumeOrderEvents(events.AuditHandler(a.log)); err != nil {
				client.Close()
				return nil, err
			}
		}
		return events.NewAMQPPublisher(client), nil
	case "kafka":
		producer := kafka.NewProducer(cfg.Events.KafkaBrokers, kafkaInboxSize, a.log)
		producer.Start()
		return events.NewKafkaPublisher(producer), nil
	default:
		return events.NopPublisher{}, nil
	}
}

func (a *App) newProductCache(cfg config.Config) (cache.ProductCache, error) {
	if cfg.Redis.Addr == "" {
		return cache.Nop{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rdb)
	return cache.NewRedisProductCache(rdb, cfg.Redis.ProductTTL), nil
}

func (a *App) health(c *fiber.Ctx) error {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("health check: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"time":     time.Now().Format(time.RFC3339),
			"database": "unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
	})
}

// Listen serves HTTP on addr until Shutdown is called.
func (a *App) Listen(addr string) error {
	a.log.Info().Str("addr", addr).Msg("starting server")
	return a.Fiber.Listen(addr)
}

// Shutdown stops accepting requests, waits for in-flight ones, then releases
// the broker, cache and database connections.
func (a *App) Shutdown() error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases everything except the HTTP listener.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

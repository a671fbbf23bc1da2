package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

// Config holds everything the bootstrap needs to wire the app.
type Config struct {
	Port         string
	DBDriver     string // sqlite or postgres
	DatabaseDSN  string
	ProductStore string // gorm or memory
	JWTSecret    string
	RabbitMQURL  string // empty disables event publishing
}

// LoadConfig reads configuration from environment variables with
// defaults suitable for the embedded in-memory database demo.
func LoadConfig() Config {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "file::memory:?cache=shared")
	viper.SetDefault("PRODUCT_STORE", "gorm")
	viper.SetDefault("JWT_SECRET", "catalog_dev_secret")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	return Config{
		Port:         viper.GetString("APP_PORT"),
		DBDriver:     viper.GetString("DB_DRIVER"),
		DatabaseDSN:  viper.GetString("DATABASE_DSN"),
		ProductStore: viper.GetString("PRODUCT_STORE"),
		JWTSecret:    viper.GetString("JWT_SECRET"),
		RabbitMQURL:  viper.GetString("RABBITMQ_URL"),
	}
}

// WithCaseSensitiveLike appends the SQLite DSN parameter that makes LIKE
// case-sensitive, matching PostgreSQL. Going through the DSN ensures every
// pooled connection gets the setting, which a one-off PRAGMA would not.
func WithCaseSensitiveLike(dsn string) string {
	if strings.Contains(dsn, "_case_sensitive_like") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_case_sensitive_like=on"
	}
	return dsn + "?_case_sensitive_like=on"
}

// OpenDatabase opens the configured SQL backend and migrates the schema.
func OpenDatabase(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(WithCaseSensitiveLike(cfg.DatabaseDSN))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// NewApp constructs the fully wired Fiber application: repositories,
// services and handlers are built explicitly and handed down, no global
// registry. publisher may be nil.
func NewApp(cfg Config, db *gorm.DB, publisher services.EventPublisher) (*fiber.App, error) {
	var productRepo repositories.ProductRepository
	switch cfg.ProductStore {
	case "memory":
		productRepo = repositories.NewMemoryProductRepository()
	case "gorm":
		productRepo = repositories.NewGORMProductRepository(db)
	default:
		return nil, fmt.Errorf("unsupported PRODUCT_STORE %q", cfg.ProductStore)
	}
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo, publisher)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)

	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, nil
}

func main() {
	cfg := LoadConfig()

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Event publishing is optional: without a broker URL the catalog
	// runs standalone against the embedded database.
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		go func() {
			log.Println("Starting RabbitMQ consumer for product events...")
			handler := func(msg amqp.Delivery) error {
				log.Printf("Received product event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumeErr := mqClient.ConsumeProductEvents(handler); consumeErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumeErr)
			}
		}()
	}

	app, err := NewApp(cfg, db, publisher)
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	log.Printf("Starting server on port %s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

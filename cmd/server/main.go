package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/database"
	"github.com/migralog/migralog/internal/handlers"
	"github.com/migralog/migralog/internal/middleware"
	"github.com/migralog/migralog/internal/types"

	_ "github.com/migralog/migralog/docs/api" // Swagger docs
)

// @title MigraLog API
// @version 1.0.0
// @description Wearable-data ingestion and migraine risk analysis service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/migralog/migralog

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("migralog")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Create handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	wearableHandler := handlers.NewWearableHandler(db, cfg)
	summaryHandler := handlers.NewSummaryHandler(db, cfg)
	calendarHandler := handlers.NewCalendarHandler(db, cfg)
	riskHandler := handlers.NewRiskHandler(db, cfg)

	// Public health probe
	api.Get("/health", healthHandler.Health)

	authed := middleware.AuthUser(cfg)

	// Wearable data routes
	wearable := api.Group("/wearable", authed)
	wearable.Post("/upload", wearableHandler.UploadWearableData)
	wearable.Get("/statistics", wearableHandler.GetStatistics)
	wearable.Get("/uploads/:id", wearableHandler.GetUploadSession)
	wearable.Delete("/uploads/:id", wearableHandler.DeleteUploadSession)
	wearable.Get("/uploads", wearableHandler.GetUploadSessions)
	wearable.Delete("/uploads", wearableHandler.DeleteAllUploads)
	wearable.Post("/cleanup-orphaned", wearableHandler.CleanupOrphaned)
	wearable.Get("/", wearableHandler.GetWearableData)

	// Summary routes
	summary := api.Group("/summary", authed)
	summary.Post("/process", summaryHandler.ProcessSummaries)
	summary.Get("/correlations", summaryHandler.GetCorrelations)
	summary.Get("/", summaryHandler.GetSummaries)

	// Calendar routes
	calendar := api.Group("/calendar", authed)
	calendar.Post("/migraine-day", calendarHandler.SetMigraineDay)
	calendar.Delete("/migraine-day/:date", calendarHandler.DeleteMigraineDay)
	calendar.Get("/", calendarHandler.GetCalendar)

	// Risk prediction routes
	risk := api.Group("/risk-prediction", authed)
	risk.Get("/prompt", riskHandler.GetPrompt)
	risk.Post("/prompt", riskHandler.PostPrompt)
	risk.Get("/data", riskHandler.GetData)
	risk.Post("/analyze", riskHandler.Analyze)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success":   false,
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler maps service errors onto the response envelope.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var custom *types.CustomError
	if errors.As(err, &custom) {
		if custom.Status == fiber.StatusServiceUnavailable {
			c.Set("Retry-After", "5")
		}
		return c.Status(custom.Status).JSON(fiber.Map{
			"success": false,
			"status":  custom.Status,
			"code":    custom.Code,
			"message": custom.Message,
		})
	}

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"success": false,
			"status":  e.Code,
			"message": e.Message,
		})
	}

	// Unexpected error: log the detail, return only a correlation id.
	requestID := uuid.New().String()
	log.Printf("[%s] internal error on %s: %v", requestID, c.OriginalURL(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success":   false,
		"status":    fiber.StatusInternalServerError,
		"code":      types.CodeInternal,
		"message":   "internal error",
		"requestId": requestID,
	})
}

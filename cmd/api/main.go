package main

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RickCarlino/mistral-ocr-frontend/internal/config"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/database"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/database/migration"
	handlers "github.com/RickCarlino/mistral-ocr-frontend/internal/http/handler"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/http/middleware"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/ocr"
	otelinit "github.com/RickCarlino/mistral-ocr-frontend/internal/otel"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/repository/postgres"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/service"
	"github.com/RickCarlino/mistral-ocr-frontend/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing: OTLP exporter feeding otelfiber/otelsql/otelhttp instrumentation
	shutdownTracing, err := otelinit.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Blob storage backend is fixed per deployment: local directory or
	// S3-compatible object storage.
	var objStore storage.Storage
	switch cfg.Storage.Backend {
	case config.StorageBackendLocal:
		objStore, err = storage.NewLocal(cfg.Storage)
	case config.StorageBackendMinIO:
		objStore, err = storage.NewMinIO(cfg.MinIO)
	default:
		log.Fatalf("unknown storage backend: %q", cfg.Storage.Backend)
	}
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	// OCR provider client
	ocrClient, err := ocr.NewMistral(cfg.OCR)
	if err != nil {
		log.Fatalf("failed to initialize ocr client: %v", err)
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, ocrClient, docRepo, service.Options{
		FailurePolicy: cfg.OCR.FailurePolicy,
		PresignExpiry: time.Duration(cfg.Storage.PresignExpirySec) * time.Second,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// With local storage, serve the upload directory statically so stored
	// images stay fetchable by clients and by the OCR provider.
	if cfg.Storage.Backend == config.StorageBackendLocal {
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			base = "/" + filepath.ToSlash(filepath.Base(cfg.Storage.LocalDir))
		}
		if strings.HasPrefix(base, "/") {
			app.Static(base, cfg.Storage.LocalDir)
		}
	}

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

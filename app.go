package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"easyhomes/internal/handlers"
	"easyhomes/internal/middleware"
	"easyhomes/internal/repositories"
	"easyhomes/internal/services"
	"easyhomes/pkg/blobstore"
	"easyhomes/pkg/config"
	"easyhomes/pkg/database"
	"easyhomes/pkg/metrics"
	"easyhomes/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App bundles the HTTP server with the resources it owns.
type App struct {
	Fiber   *fiber.App
	DB      *gorm.DB
	Blobs   blobstore.Store
	MQ      *rabbitmq.Client
	Metrics *metrics.Metrics

	log *zap.Logger
}

// NewApp connects every backing service described by cfg and registers the routes.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Open(cfg.Database, gormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}

	a := &App{
		DB:      db,
		Blobs:   blobs,
		Metrics: metrics.New(strings.ReplaceAll(cfg.ServiceName, "-", "_")),
		log:     log,
	}

	// RabbitMQ is optional; the service keeps running without events.
	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, commit events disabled", zap.Error(err))
		} else {
			a.MQ = mq
			publisher = mq
			if cfg.RabbitMQ.Consume {
				if err := mq.ConsumeCommitEvents(logCommitEvent(log)); err != nil {
					log.Warn("failed to start commit event consumer", zap.Error(err))
				}
			}
		}
	}

	userRepo := repositories.NewGORMUserRepository(db)
	homeRepo := repositories.NewGORMHomeRepository(db)
	commitRepo := repositories.NewGORMCommitRepository(db)

	homeService := services.NewHomeService(homeRepo)
	userService := services.NewUserService(userRepo)
	commitService := services.NewCommitService(commitRepo, homeRepo, userRepo, blobs, services.CommitServiceOptions{
		Publisher:      publisher,
		Metrics:        a.Metrics,
		Logger:         log,
		MaxUploadBytes: cfg.Blob.MaxUploadBytes,
	})

	validate := validator.New()
	homeHandler := handlers.NewHomeHandler(homeService, validate, log)
	userHandler := handlers.NewUserHandler(userService, validate, log)
	commitHandler := handlers.NewCommitHandler(commitService, log, cfg.Blob.MaxUploadBytes)

	app := fiber.New(fiber.Config{
		AppName: cfg.ServiceName,
		// multipart framing on top of the largest accepted screenshot
		BodyLimit:    int(cfg.Blob.MaxUploadBytes) + 1<<20,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + handlers.IdempotencyKeyHeader,
	}))
	app.Use(a.Metrics.Middleware())

	app.Get("/health", a.handleHealth)
	app.Get("/metrics", a.Metrics.Handler())

	homeHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app)

	var commitGuards []fiber.Handler
	if cfg.CommitRateLimit > 0 {
		commitGuards = append(commitGuards, limiter.New(limiter.Config{
			Max:        cfg.CommitRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"message": "Too many commit submissions",
					"error":   "rate limit exceeded",
				})
			},
		}))
	}
	commitHandler.RegisterRoutes(app, commitGuards...)

	a.Fiber = app
	return a, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
		"rabbitmq": "disabled",
	}
	code := fiber.StatusOK

	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status["status"] = "unhealthy"
		status["database"] = err.Error()
		code = fiber.StatusServiceUnavailable
	}
	if a.MQ != nil {
		status["rabbitmq"] = "connected"
	}
	return c.Status(code).JSON(status)
}

// Shutdown stops the server and releases every backing connection.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.MQ != nil {
		if err := a.MQ.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Blobs.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("blob store close: %w", err))
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig) (blobstore.Store, error) {
	switch cfg.Driver {
	case "gridfs":
		return blobstore.NewGridFSStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.GridFSBucket)
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "memory":
		return blobstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.Driver)
	}
}

func logCommitEvent(log *zap.Logger) func(rabbitmq.CommitEvent) error {
	return func(e rabbitmq.CommitEvent) error {
		log.Info("commit event received",
			zap.String("commit_id", e.CommitID),
			zap.String("user_id", e.UserID),
			zap.String("home_id", e.HomeID),
			zap.String("renter_id", e.RenterID),
			zap.Time("created_at", e.CreatedAt),
		)
		return nil
	}
}

// errorHandler renders errors that escape the handlers (404 routes, body limit, panics)
// in the same shape the handlers use.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			middleware.Logger(c, log).Error("unhandled error", zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"message": statusMessage(code),
			"error":   err.Error(),
		})
	}
}

func statusMessage(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "Route not found"
	case fiber.StatusRequestEntityTooLarge:
		return "Request body too large"
	default:
		return "Request failed"
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return gormlogger.Info
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

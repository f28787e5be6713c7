// @title           Custom Field Service API
// @version         1.0
// @description     Custom field definition and computed value API

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/fields

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	_ "project-field-api/docs" // Swagger docs import

	"project-field-api/internal/client"
	"project-field-api/internal/config"
	"project-field-api/internal/database"
	"project-field-api/internal/job"
	"project-field-api/internal/metrics"
	"project-field-api/internal/repository"
	"project-field-api/internal/router"
	"project-field-api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Field Service",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
	)

	// Initialize metrics
	m := metrics.New()
	logger.Info("Metrics initialized")

	// Initialize database; startup survives a down database so the pod can
	// come up and retry in the background
	dbConfig := database.Config{
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	// Runs on every successful connect, whether at startup or from the
	// background retry loop
	wireDatabase := func(db *gorm.DB) {
		if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
			logger.Warn("Failed to run database migrations", zap.Error(err))
		} else {
			logger.Info("Database migrations completed")
		}
		database.RegisterMetricsCallbacks(db, m)
		database.StartDBStatsCollector(db, m)
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, will retry in background",
			zap.Error(err))
		database.NewAsync(dbConfig, 5*time.Second, logger, wireDatabase)
	} else {
		logger.Info("Database connected successfully")
		database.SetDB(db)
		wireDatabase(db)
	}

	// Initialize Redis for the usage summary cache. The report endpoint falls
	// back to definition contexts when the cache and summaries are unavailable,
	// so a missing Redis is not fatal.
	if err := database.InitRedis(*cfg, logger); err != nil {
		logger.Warn("Failed to connect to Redis, usage summary cache disabled", zap.Error(err))
	}
	redisClient := database.GetRedis()

	// Initialize S3 exporter for usage report CSV exports
	var exporter client.UsageExporter
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		s3Exporter, err := client.NewS3Exporter(&cfg.S3, m)
		if err != nil {
			logger.Warn("Failed to initialize S3 exporter, usage exports disabled", zap.Error(err))
		} else {
			exporter = s3Exporter
			logger.Info("S3 exporter initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Warn("S3 configuration incomplete, usage exports disabled")
	}

	// Background jobs: periodic derived-field recompute and usage event
	// aggregation
	definitionRepo := repository.NewFieldDefinitionRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	usageRepo := repository.NewUsageRepository(db, redisClient)
	valueService := service.NewFieldValueService(boardRepo, definitionRepo, m)

	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.Jobs.RecomputeSchedule,
		job.NewRecomputeJob(definitionRepo, boardRepo, valueService, logger)); err != nil {
		logger.Error("Failed to schedule recompute job", zap.Error(err))
	}
	if _, err := scheduler.AddJob(cfg.Jobs.UsageSummarySchedule,
		job.NewUsageSummaryJob(usageRepo, logger)); err != nil {
		logger.Error("Failed to schedule usage summary job", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("Background jobs scheduled",
		zap.String("recompute", cfg.Jobs.RecomputeSchedule),
		zap.String("usage_summary", cfg.Jobs.UsageSummarySchedule),
	)

	// Setup router with all dependencies
	r := router.Setup(router.Config{
		DB:        db,
		Redis:     redisClient,
		Logger:    logger,
		JWTSecret: cfg.JWT.Secret,
		BasePath:  cfg.Server.BasePath,
		Metrics:   m,
		Exporter:  exporter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Field Service started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Stop scheduling new job runs; in-flight runs finish on their own
	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

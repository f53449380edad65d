package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/infrastructure/cache"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/erp/stockcount/internal/infrastructure/event"
	"github.com/erp/stockcount/internal/infrastructure/logger"
	"github.com/erp/stockcount/internal/infrastructure/migration"
	"github.com/erp/stockcount/internal/infrastructure/persistence"
	"github.com/erp/stockcount/internal/infrastructure/printing"
	"github.com/erp/stockcount/internal/infrastructure/report"
	"github.com/erp/stockcount/internal/infrastructure/storage"
	"github.com/erp/stockcount/internal/infrastructure/telemetry"
	"github.com/erp/stockcount/internal/interfaces/http/handler"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/erp/stockcount/internal/interfaces/http/router"
	"github.com/erp/stockcount/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/erp/stockcount/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Stock Count API
//	@version		1.0
//	@description	Inventory count sessions, variance review and two-step approval.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const hstsMaxAge = 365 * 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The bootstrap logger reports telemetry setup before the OTLP log core exists
	bootstrap, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(cfg.Log, logProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stock count service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Enabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, db.System(), log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Decision locks and event idempotency
	backends, err := cache.NewBackends(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithRedisRequired(cfg.App.Env == "production"),
	)
	if err != nil {
		log.Fatal("Failed to initialize cache backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing cache backends", zap.Error(err))
		}
	}()

	archives, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Repositories
	countRepo := persistence.NewGormInventoryCountRepository(db.DB)
	templateRepo := persistence.NewGormCountTemplateRepository(db.DB)
	stockRepo := persistence.NewGormStockLevelRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdjustmentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	countMetrics, err := telemetry.NewCountMetrics(meterProvider.Meter("stockcount/inventory"))
	if err != nil {
		log.Fatal("Failed to register count metrics", zap.Error(err))
	}
	eventBus.Subscribe(countMetrics, countMetrics.EventTypes()...)

	workbooks := report.NewWorkbooks()
	if cfg.Approval.ArchiveEnabled {
		archiver := inventoryapp.NewCountArchiveHandler(countRepo, adjustmentRepo, archives, workbooks, eventBus, log)
		idempotent := event.NewIdempotentHandler("count-archive", archiver, backends.Idempotency, log)
		eventBus.Subscribe(idempotent, idempotent.EventTypes()...)
		log.Info("Count archiving enabled", zap.Strings("events", idempotent.EventTypes()))
	}

	// Count sheets
	var sheets inventoryapp.CountSheetRenderer
	if cfg.Printing.Enabled {
		pdf := printing.NewChromedpRenderer(cfg.Printing, log)
		defer func() {
			if err := pdf.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		sheets = printing.NewCountSheetRenderer(pdf, cfg.Printing.Locale)
	}

	// Services
	countService := inventoryapp.NewCountService(countRepo, templateRepo, stockRepo, eventBus)
	approvalService := inventoryapp.NewCountApprovalService(countRepo, adjustmentRepo, txScope, backends.Lock, eventBus,
		inventoryapp.WithDecisionLockTTL(cfg.Approval.LockTTL),
		inventoryapp.WithDecisionRecorder(countMetrics),
		inventoryapp.WithApprovalLogger(log),
	)
	documentService := inventoryapp.NewCountDocumentService(countRepo, countService, workbooks, workbooks, sheets,
		inventoryapp.WithArchiveLinks(archives),
	)

	handlers := handler.InventoryHandlers{
		Counts:      handler.NewCountHandler(countService, documentService),
		Templates:   handler.NewCountTemplateHandler(inventoryapp.NewCountTemplateService(templateRepo)),
		Approvals:   handler.NewApprovalHandler(approvalService),
		StockLevels: handler.NewStockLevelHandler(inventoryapp.NewStockLevelService(stockRepo)),
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
		MeterProvider: meterProvider.Provider(),
		SkipPaths:     []string{"/health"},
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", handler.NewHealthHandler(map[string]handler.Pinger{
		"database": db,
		"cache":    backends,
		"storage":  archives,
	}).Check)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator: jwtService,
			Logger:    log,
		}),
		middleware.SpanAttributes(),
		middleware.ProfilingLabels(),
	)
	if cfg.App.Env == "production" {
		r.Use(middleware.Secure(hstsMaxAge))
	}
	r.Register(handlers.Routes(middleware.RequireAnyPermissionWithConfig(
		middleware.PermissionConfig{Logger: log}, cfg.Approval.Permission,
	)))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := errors.Join(
		meterProvider.Shutdown(shutdownCtx),
		tracerProvider.Shutdown(shutdownCtx),
		logProvider.Shutdown(shutdownCtx),
	); err != nil {
		log.Error("Error flushing telemetry", zap.Error(err))
	}

	log.Info("Server exited")
}

// migrateSchema applies the embedded migrations on PostgreSQL. SQLite
// databases are created from the models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

type archiveStorage interface {
	inventoryapp.ObjectStorage
	inventoryapp.ArchiveLinker
	Ping(ctx context.Context) error
}

func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (archiveStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled; count archives are kept in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Count archives stored in S3", zap.String("bucket", s3.Bucket()))
	return s3, nil
}

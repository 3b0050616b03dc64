package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tramita/inbox-api/api/swagger"
	"github.com/tramita/inbox-api/internal/handler"
	"github.com/tramita/inbox-api/internal/middleware"
	"github.com/tramita/inbox-api/internal/repository"
	"github.com/tramita/inbox-api/internal/service"
	"github.com/tramita/inbox-api/pkg/cache"
	"github.com/tramita/inbox-api/pkg/config"
	"github.com/tramita/inbox-api/pkg/database"
	"github.com/tramita/inbox-api/pkg/logger"
	corsmiddleware "github.com/tramita/inbox-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tramita/inbox-api/pkg/middleware/requestid"
	"github.com/tramita/inbox-api/pkg/storage"
)

// @title Tramita Inbox API
// @version 0.1.0
// @description Document inbox routing and triage for administrative case management
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The inbox works without Redis, statistics just lose their cache.
		logr.Sugar().Warnw("redis unavailable, statistics caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	documentRepo := repository.NewDocumentRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	snapshots := service.NewSnapshotStore()

	statsParams := service.StatisticsServiceParams{
		Repo:      statisticsRepo,
		Snapshots: snapshots,
		Cache:     cacheRepo,
		CacheTTL:  cfg.Inbox.StatsCacheTTL,
		Logger:    logr,
	}
	if cfg.Legacy.Enabled {
		statsParams.Legacy = repository.NewLegacySummaryClient(cfg.Legacy.SummaryURL, cfg.Legacy.Timeout)
	}
	statsService := service.NewStatisticsService(statsParams)

	inboxService := service.NewInboxService(documentRepo, snapshots, logr)
	triageService := service.NewTriageService(documentRepo, userRepo, userRepo, statsService, validate, logr)
	directoryService := service.NewDirectoryService(userRepo, logr)
	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService = service.NewExportService(documentRepo, fileStore, signer, service.ExportConfig{
			ResultTTL:  cfg.Exports.SignedURLTTL,
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
		}, logr)
		exportService.Start(ctx)
		defer exportService.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportService.Cleanup()
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(inboxService, triageService, metricsService,
		cfg.Inbox.DefaultPageSize, cfg.Inbox.MaxPageSize)
	statisticsHandler := handler.NewStatisticsHandler(statsService, metricsService,
		cfg.Inbox.DefaultPageSize, cfg.Inbox.MaxPageSize)
	sectorHandler := handler.NewSectorHandler(inboxService)
	recipientHandler := handler.NewRecipientHandler(directoryService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authService))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/documents", documentHandler.List)
	authed.GET("/documents/statistics", statisticsHandler.Summary)
	authed.GET("/documents/:id", documentHandler.Get)
	authed.POST("/documents/:id/read", documentHandler.MarkRead)
	authed.POST("/documents/:id/analysis", documentHandler.StartAnalysis)
	authed.POST("/documents/:id/forward", documentHandler.Forward)
	authed.POST("/documents/:id/archive", documentHandler.Archive)
	authed.POST("/documents/:id/actions", documentHandler.Dispatch)

	authed.GET("/sectors", sectorHandler.List)
	authed.GET("/recipients", recipientHandler.Search)

	if exportService != nil {
		exportHandler := handler.NewExportHandler(exportService, cfg.Inbox.DefaultPageSize, cfg.Inbox.MaxPageSize)
		authed.POST("/exports",
			middleware.Audit(userRepo, "export.create", "export"), exportHandler.Create)
		authed.GET("/exports/:id", exportHandler.Status)
		// Downloads authenticate through the signed token itself.
		api.GET("/export/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

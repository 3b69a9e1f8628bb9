package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/arcstream/vgate-api/api/swagger"
	"github.com/arcstream/vgate-api/internal/handler"
	"github.com/arcstream/vgate-api/internal/middleware"
	"github.com/arcstream/vgate-api/internal/models"
	"github.com/arcstream/vgate-api/internal/oracle"
	"github.com/arcstream/vgate-api/internal/repository"
	"github.com/arcstream/vgate-api/internal/service"
	"github.com/arcstream/vgate-api/pkg/cache"
	"github.com/arcstream/vgate-api/pkg/config"
	"github.com/arcstream/vgate-api/pkg/database"
	"github.com/arcstream/vgate-api/pkg/delivery"
	"github.com/arcstream/vgate-api/pkg/logger"
	corsmiddleware "github.com/arcstream/vgate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arcstream/vgate-api/pkg/middleware/requestid"
)

// @title VGate API
// @version 0.1.0
// @description Video access gating and secure delivery URL issuing
// @BasePath /
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	videoRepo := repository.NewVideoRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	grantRepo := repository.NewGrantRepository(db)
	codeCache := repository.NewCodeCacheRepository(redisClient, cfg.Viewer.AnonymousCodeTTL, logr)

	oracleClient := oracle.NewClient(cfg.Oracle, logr)
	if !oracleClient.Configured() {
		logr.Warn("code oracle not configured: all code-gated access will be denied")
	}

	issuer := delivery.NewIssuer(cfg.Delivery, logr)
	if !issuer.Configured() {
		logr.Warn("delivery integration not configured: playback URLs will be empty")
	}

	site := models.SiteProtection{
		Enabled:       cfg.Site.ProtectionEnabled,
		AcceptedCodes: cfg.Site.ProtectionCodes,
	}

	accessService := service.NewAccessService(videoRepo, categoryRepo, grantRepo, codeCache, oracleClient, site, logr)
	playbackService := service.NewPlaybackService(videoRepo, accessService, issuer, service.PlaybackConfig{
		URLTTL:        cfg.Delivery.URLTTL,
		PreviewURLTTL: cfg.Delivery.PreviewURLTTL,
	}, logr)
	metricsService := service.NewMetricsService()

	playbackHandler := handler.NewPlaybackHandler(playbackService, accessService, metricsService)
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
	r.Use(middleware.Viewer(cfg.Viewer.JWTSecret, cfg.Viewer.SessionTTL))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/videos/:id/playback", playbackHandler.GetPlayback)
		api.POST("/videos/:id/unlock", playbackHandler.UnlockVideo)
		api.POST("/categories/:id/unlock", playbackHandler.UnlockCategory)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

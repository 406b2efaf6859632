package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/civicgrid/grievance-api/api/swagger"
	"github.com/civicgrid/grievance-api/internal/handler"
	"github.com/civicgrid/grievance-api/internal/repository"
	"github.com/civicgrid/grievance-api/internal/service"
	"github.com/civicgrid/grievance-api/pkg/cache"
	"github.com/civicgrid/grievance-api/pkg/config"
	"github.com/civicgrid/grievance-api/pkg/database"
	"github.com/civicgrid/grievance-api/pkg/logger"
	corsmiddleware "github.com/civicgrid/grievance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/civicgrid/grievance-api/pkg/middleware/requestid"
)

// @title Grievance Tracker API
// @version 1.0.0
// @description Citizen grievance and feedback tracking service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled)
	}

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, userRepo, cacheSvc, nil, logr, nil)
	statsSvc := service.NewStatsService(submissionRepo, cacheSvc, logr)
	ratingSvc := service.NewRatingService(submissionRepo, userRepo, cacheSvc, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router := &handler.Router{
		Auth:        handler.NewAuthHandler(authSvc),
		Submissions: handler.NewSubmissionHandler(submissionSvc, statsSvc, ratingSvc),
		Admin:       handler.NewAdminHandler(userSvc, submissionSvc, statsSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
		AuthService: authSvc,
		MetricsSvc:  metricsSvc,
		AuditRepo:   userRepo,
	}
	router.Register(r, cfg.APIPrefix)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

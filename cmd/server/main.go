package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/api/swagger"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/handler"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/middleware"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/repository"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/service"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/cache"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/config"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/database"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/logger"
	corsmiddleware "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/middleware/cors"
	reqidmiddleware "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/middleware/requestid"
)

// @title Tra Cuu Diem Thi API
// @version 1.0.0
// @description Public exam-score lookup portal with administrative back office
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
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, lookup rate limiting disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	validate := validator.New()

	candidateRepo := repository.NewCandidateRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	importRepo := repository.NewImportRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)

	settingsSvc := service.NewSettingsService(settingsRepo, scoreRepo, logr)
	importSvc := service.NewImportService(candidateRepo, scoreRepo, importRepo, settingsSvc, validate, logr)
	recordSvc := service.NewRecordService(scoreRepo, candidateRepo, settingsSvc, validate, logr)
	exportSvc := service.NewExportService(scoreRepo, settingsSvc, logr)
	captchaSvc := service.NewCaptchaService(cfg.Captcha.Width, cfg.Captcha.Height, cfg.Captcha.Length, cfg.Captcha.Expiry)
	metricsSvc := service.NewMetricsService()

	limiterClient := redisClient
	if !cfg.Lookup.RateLimitEnabled {
		limiterClient = nil
	}
	limiter := service.NewRedisRateLimiter(limiterClient, cfg.Lookup.RateLimitWindow)

	lookupSvc := service.NewLookupService(candidateRepo, scoreRepo, settingsSvc, captchaSvc, limiter, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	lookupHandler := handler.NewLookupHandler(lookupSvc, captchaSvc, metricsSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	recordHandler := handler.NewRecordHandler(recordSvc, importSvc, exportSvc)
	importHandler := handler.NewImportHandler(importSvc, exportSvc, metricsSvc, cfg.Import.MaxFileSizeBytes, cfg.Import.MaxRows)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/lookup", lookupHandler.Lookup)
		api.GET("/captcha", lookupHandler.NewCaptcha)
		api.GET("/captcha/:id", lookupHandler.CaptchaImage)
		api.GET("/settings", settingsHandler.PublicSettings)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		admin := api.Group("/admin", middleware.JWT(authSvc))
		{
			admin.GET("/settings", settingsHandler.GetSettings)
			admin.PUT("/settings", settingsHandler.UpdateSettings)
			admin.POST("/settings/subjects/resync", settingsHandler.ResyncSubjects)

			admin.GET("/records", recordHandler.List)
			admin.POST("/records", recordHandler.Create)
			admin.PUT("/records/:id", recordHandler.Update)
			admin.DELETE("/records/:id", recordHandler.Delete)
			admin.DELETE("/records", recordHandler.Wipe)
			admin.GET("/records/export", recordHandler.Export)
			admin.GET("/stats", recordHandler.Stats)

			admin.POST("/import", importHandler.Import)
			admin.GET("/import/template", importHandler.Template)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

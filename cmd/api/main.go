package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-process rate limits", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	images, err := newImageStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to configure image storage", zap.Error(err))
	}

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, logger)
	handlers := api.NewHandlers(api.Services{
		Auth:         authService,
		Users:        service.NewUserService(db),
		Catalog:      service.NewCatalogService(db),
		Recipes:      service.NewRecipeService(db, images, logger),
		Favorites:    service.NewMembershipService(db, models.Favorites, logger),
		ShoppingCart: service.NewMembershipService(db, models.ShoppingCart, logger),
		ShoppingList: service.NewShoppingListService(db),
		Follows:      service.NewFollowService(db, logger),
		Database: func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		},
	}, conflictStatus(cfg), logger)

	opts := router.Options{
		CORSOrigins:         cfg.CORSAllowedOrigins,
		CreationLimiter:     middleware.NewRecipeCreationLimiter(redisClient, cfg.RecipeCreationLimit, cfg.RateLimitWindow),
		ModificationLimiter: middleware.NewRecipeModificationLimiter(redisClient, cfg.RecipeModificationLimit, cfg.RateLimitWindow),
		TokenValidator:      authService,
	}
	if cfg.S3Bucket == "" {
		opts.MediaURL = cfg.MediaURL
		opts.MediaRoot = cfg.MediaRoot
	}

	srv := server.New(cfg, router.SetupRouter(handlers, opts, logger), logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	closeDB(db, logger)
	logger.Info("server stopped")
}

func newImageStore(cfg *config.Config, logger *zap.Logger) (service.ImageStore, error) {
	if cfg.S3Bucket == "" {
		logger.Info("storing images on local disk", zap.String("root", cfg.MediaRoot))
		return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s3Config, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("storing images in s3", zap.String("bucket", s3Config.BucketName))
	return service.NewS3ImageStore(s3Config, logger), nil
}

func conflictStatus(cfg *config.Config) int {
	if cfg.ConflictStatus409 {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func closeDB(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}

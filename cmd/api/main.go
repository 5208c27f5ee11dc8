package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/report"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout})
	logging.Info().Str("env", string(config.GetEnvironment())).Msg("starting foodgram API")

	if err := validation.Setup(); err != nil {
		logging.Fatal().Err(err).Msg("failed to register validators")
	}

	// Initialize database
	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis backs rate limiting and token revocation when configured. Without it the
	// in-process limiter and the revoked_tokens table take over.
	var redisClient *redis.Client
	var revoker service.TokenRevoker
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, falling back to in-process rate limiting")
			redisClient = nil
		} else {
			defer redisClient.Close()
			revoker = service.NewRedisRevoker(redisClient)
		}
	}

	imageStore, mediaDir := newImageStore(cfg)

	// Initialize services
	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoker)
	userService := service.NewUserService(db, cfg.PageSize)
	catalogService := service.NewCatalogService(db)
	recipeService := service.NewRecipeService(db, service.NewImageService(imageStore), cfg.PageSize)

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(authService, middleware.NewLoginRateLimiter(redisClient)),
		Users:   api.NewUserHandler(authService, userService, cfg.PageSize),
		Catalog: api.NewCatalogHandler(catalogService, authService),
		Recipes: api.NewRecipeHandler(
			recipeService,
			authService,
			report.NewShoppingListRenderer(cfg.ShoppingListFont),
			middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit),
			cfg.PageSize,
		),
		Health: api.NewHealthHandler(db),
	}

	engine := router.SetupRouter(handlers, router.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MediaDir:       mediaDir,
		MediaURL:       cfg.MediaURL,
	})

	// Create and start server
	srv := server.New(cfg, engine)
	if err := srv.Start(); err != nil {
		logging.Fatal().Err(err).Msg("server error")
	}
	logging.Info().Msg("server stopped")
}

// newImageStore selects S3 when a bucket is configured and the local media directory
// otherwise. The returned directory is empty when nothing should be served locally.
func newImageStore(cfg *config.Config) (service.ImageStore, string) {
	if cfg.S3Bucket != "" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to configure S3")
		}
		logging.Info().Str("bucket", cfg.S3Bucket).Msg("storing recipe images in S3")
		return service.NewS3ImageStore(s3cfg), ""
	}

	logging.Info().Str("dir", cfg.MediaDir).Msg("storing recipe images on local disk")
	return service.NewLocalImageStore(cfg.MediaDir, cfg.MediaURL), cfg.MediaDir
}

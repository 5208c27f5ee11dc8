package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Handlers groups the API handlers mounted under /api.
type Handlers struct {
	Auth    *api.AuthHandler
	Users   *api.UserHandler
	Catalog *api.CatalogHandler
	Recipes *api.RecipeHandler
	Health  *api.HealthHandler
}

// Options tunes the engine outside of the API routes.
type Options struct {
	AllowedOrigins []string
	// MediaDir is served under MediaURL when set. Leave it empty when images live in S3.
	MediaDir string
	MediaURL string
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(opts.AllowedOrigins))

	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())

	// Operational endpoints (no auth required)
	router.GET("/health", h.Health.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.MediaDir != "" {
		router.Static(mediaPrefix(opts.MediaURL), opts.MediaDir)
	}

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", h.Health.HealthCheck)

	h.Auth.RegisterRoutes(apiGroup)
	h.Users.RegisterRoutes(apiGroup)
	h.Catalog.RegisterRoutes(apiGroup)
	h.Recipes.RegisterRoutes(apiGroup)

	return router
}

// mediaPrefix turns MEDIA_URL into a route prefix. Absolute URLs point at another
// host and fall back to /media.
func mediaPrefix(mediaURL string) string {
	if mediaURL == "" || strings.Contains(mediaURL, "://") {
		return "/media"
	}
	return "/" + strings.Trim(mediaURL, "/")
}

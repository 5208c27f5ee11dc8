package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	MigrationsDir string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// API behaviour
	PageSize           int
	RecipeCreateLimit  int
	CORSAllowedOrigins []string

	// Media storage. S3 is used when S3Bucket is set, MediaDir otherwise.
	MediaDir  string
	MediaURL  string
	S3Bucket  string
	AWSRegion string

	// ShoppingListFont is an optional TTF used for non-latin ingredient names.
	ShoppingListFont string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	env := GetEnvironment()
	cfg := &Config{}

	// Load configuration based on environment
	switch env {
	case CI, Development, Test:
		loadEnvConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	applyDefaults(cfg)

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig reads everything from environment variables, falling back to
// Docker secrets for the sensitive values.
func loadEnvConfig(cfg *Config) {
	cfg.ServerPort = os.Getenv("SERVER_PORT")
	cfg.ServerHost = os.Getenv("SERVER_HOST")
	cfg.DBDriver = os.Getenv("DB_DRIVER")
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = os.Getenv("DB_PORT")
	cfg.DBUser = envOrSecret("DB_USER", "db_user")
	cfg.DBPassword = envOrSecret("DB_PASSWORD", "db_password")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = os.Getenv("DB_SSL_MODE")
	cfg.MigrationsDir = os.Getenv("MIGRATIONS_DIR")
	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = os.Getenv("REDIS_PORT")
	cfg.RedisPassword = envOrSecret("REDIS_PASSWORD", "redis_password")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisDB = 0 // This is a constant, not a secret
	cfg.JWTSecret = envOrSecret("JWT_SECRET", "jwt_secret")
	loadCommon(cfg)
}

// loadProdConfig loads configuration for production environment. Sensitive values come
// from Docker secrets only.
func loadProdConfig(cfg *Config) {
	cfg.ServerPort = envOrSecret("SERVER_PORT", "server_port")
	cfg.ServerHost = envOrSecret("SERVER_HOST", "server_host")
	cfg.DBDriver = os.Getenv("DB_DRIVER")
	cfg.DBHost = envOrSecret("DB_HOST", "db_host")
	cfg.DBPort = envOrSecret("DB_PORT", "db_port")
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.DBName = envOrSecret("DB_NAME", "db_name")
	cfg.DBSSLMode = envOrSecret("DB_SSL_MODE", "db_ssl_mode")
	cfg.MigrationsDir = os.Getenv("MIGRATIONS_DIR")
	cfg.RedisHost = envOrSecret("REDIS_HOST", "redis_host")
	cfg.RedisPort = envOrSecret("REDIS_PORT", "redis_port")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisURL = readSecret("redis_url")
	cfg.RedisDB = 0 // This is a constant, not a secret
	cfg.JWTSecret = readSecret("jwt_secret")
	loadCommon(cfg)
}

func loadCommon(cfg *Config) {
	cfg.TokenTTL = parseDuration(os.Getenv("TOKEN_TTL"))
	cfg.PageSize = parseInt(os.Getenv("PAGE_SIZE"))
	cfg.RecipeCreateLimit = parseInt(os.Getenv("RECIPE_CREATE_LIMIT"))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.MediaDir = os.Getenv("MEDIA_DIR")
	cfg.MediaURL = os.Getenv("MEDIA_URL")
	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	cfg.ShoppingListFont = os.Getenv("SHOPPING_LIST_FONT")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.LogFormat = os.Getenv("LOG_FORMAT")
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "postgres"
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 6
	}
	if cfg.RecipeCreateLimit <= 0 {
		cfg.RecipeCreateLimit = 30
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "media"
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		if IsProduction() {
			cfg.LogFormat = "json"
		} else {
			cfg.LogFormat = "console"
		}
	}
}

// RedisEnabled reports whether a redis server was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func envOrSecret(envVar, secret string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return readSecret(secret)
}

func parseInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func parseDuration(v string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

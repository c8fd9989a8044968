package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "foodgram-dev-secret"

// Config holds all configuration for the application
type Config struct {
	Env Environment

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
	SQLitePath    string
	AutoMigrate   bool
	MigrationsDir string

	// Redis configuration, optional
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Recipe image storage. S3 is used when S3Bucket is set, the local media directory otherwise.
	S3Bucket    string
	AWSRegion   string
	S3Endpoint  string
	S3PublicURL string
	MediaRoot   string
	MediaURL    string

	CORSAllowedOrigins []string

	RecipeCreationLimit     int
	RecipeModificationLimit int
	RateLimitWindow         time.Duration

	// ConflictStatus409 answers duplicate memberships with 409 instead of 400.
	ConflictStatus409 bool

	LogLevel string
}

// LoadConfig reads the configuration from an optional .env file, the environment and Docker secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:                     GetEnvironment(),
		ServerPort:              v.GetString("SERVER_PORT"),
		ServerHost:              v.GetString("SERVER_HOST"),
		DBDriver:                strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:                  v.GetString("DB_HOST"),
		DBPort:                  v.GetString("DB_PORT"),
		DBUser:                  v.GetString("DB_USER"),
		DBPassword:              v.GetString("DB_PASSWORD"),
		DBName:                  v.GetString("DB_NAME"),
		DBSSLMode:               v.GetString("DB_SSL_MODE"),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		AutoMigrate:             v.GetBool("AUTO_MIGRATE"),
		MigrationsDir:           v.GetString("MIGRATIONS_DIR"),
		RedisURL:                v.GetString("REDIS_URL"),
		RedisHost:               v.GetString("REDIS_HOST"),
		RedisPort:               v.GetString("REDIS_PORT"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		TokenTTL:                v.GetDuration("TOKEN_TTL"),
		S3Bucket:                v.GetString("S3_BUCKET_NAME"),
		AWSRegion:               v.GetString("AWS_REGION"),
		S3Endpoint:              v.GetString("S3_ENDPOINT"),
		S3PublicURL:             v.GetString("S3_PUBLIC_URL"),
		MediaRoot:               v.GetString("MEDIA_ROOT"),
		MediaURL:                v.GetString("MEDIA_URL"),
		CORSAllowedOrigins:      splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RecipeCreationLimit:     v.GetInt("RECIPE_CREATION_LIMIT"),
		RecipeModificationLimit: v.GetInt("RECIPE_MODIFICATION_LIMIT"),
		RateLimitWindow:         v.GetDuration("RATE_LIMIT_WINDOW"),
		ConflictStatus409:       v.GetBool("CONFLICT_STATUS_409"),
		LogLevel:                v.GetString("LOG_LEVEL"),
	}

	applySecrets(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "foodgram")
	v.SetDefault("DB_NAME", "foodgram")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("SQLITE_PATH", "foodgram.db")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RECIPE_CREATION_LIMIT", 30)
	v.SetDefault("RECIPE_MODIFICATION_LIMIT", 60)
	v.SetDefault("RATE_LIMIT_WINDOW", "1h")
	v.SetDefault("CONFLICT_STATUS_409", false)
	v.SetDefault("LOG_LEVEL", "info")
}

// applySecrets overrides sensitive values with Docker secrets when they are mounted
func applySecrets(cfg *Config) {
	if s := readSecret("db_password"); s != "" {
		cfg.DBPassword = s
	}
	if s := readSecret("jwt_secret"); s != "" {
		cfg.JWTSecret = s
	}
	if s := readSecret("redis_password"); s != "" {
		cfg.RedisPassword = s
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RedisEnabled reports whether a Redis instance was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// PostgresDSN builds the keyword/value connection string used by the postgres drivers
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

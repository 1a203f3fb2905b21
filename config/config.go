package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig describes the external identity provider. Tokens are RS256
// bearer tokens verified against the provider's JWKS endpoint.
type AuthConfig struct {
	Domain       string
	Audience     string
	JWKSRefresh  time.Duration
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type StorageConfig struct {
	Backend         string // "gcs" or "s3"
	Bucket          string
	CredentialsPath string // GCS service account key (optional)
	S3Region        string
	UploadPrefix    string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	SweepSpec   string // cron expression for the orphan-blob sweep
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "codecove"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Domain:       getEnv("AUTH_DOMAIN", ""),
			Audience:     getEnv("AUTH_AUDIENCE", ""),
			JWKSRefresh:  getEnvAsDuration("AUTH_JWKS_REFRESH", time.Hour),
			ClientID:     getEnv("AUTH_CLIENT_ID", ""),
			ClientSecret: getEnv("AUTH_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("AUTH_REDIRECT_URL", ""),
		},
		Storage: StorageConfig{
			Backend:         getEnv("STORAGE_BACKEND", "gcs"),
			Bucket:          getEnv("STORAGE_BUCKET", ""),
			CredentialsPath: getEnv("STORAGE_CREDENTIALS_PATH", ""),
			S3Region:        getEnv("STORAGE_S3_REGION", "us-east-1"),
			UploadPrefix:    getEnv("STORAGE_UPLOAD_PREFIX", "uploads"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			SweepSpec:   getEnv("RECONCILE_CRON", "0 0 3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Auth.Domain == "" {
		return fmt.Errorf("AUTH_DOMAIN is required")
	}

	if c.Auth.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required")
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}

	if c.Storage.Backend != "gcs" && c.Storage.Backend != "s3" {
		return fmt.Errorf("STORAGE_BACKEND must be gcs or s3, got %q", c.Storage.Backend)
	}

	return nil
}

// JWKSURL returns the provider's well-known key set endpoint.
func (c *AuthConfig) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", c.Domain)
}

// Issuer returns the expected iss claim value.
func (c *AuthConfig) Issuer() string {
	return fmt.Sprintf("https://%s/", c.Domain)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

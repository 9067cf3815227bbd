// Package config loads application configuration from the environment,
// with a .env file as a development convenience.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the connection string for pgx.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// UploadConfig holds local file storage settings.
type UploadConfig struct {
	Dir     string
	BaseURL string
}

// R2Config holds Cloudflare R2 (S3-compatible) storage settings.
// Storage falls back to local disk when AccountID is empty.
type R2Config struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Config is the full application configuration.
type Config struct {
	Port      string
	JWTSecret string
	DB        DBConfig
	Upload    UploadConfig
	R2        R2Config
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present (ignored in production
// where real env vars are set).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "corpdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "uploads"),
			BaseURL: getEnv("UPLOAD_BASE_URL", "/api/files"),
		},
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
			Bucket:    os.Getenv("R2_BUCKET"),
			PublicURL: os.Getenv("R2_PUBLIC_URL"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// getEnv returns the env var value or a default when unset.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort string `envconfig:"PORT" default:"8000"`

	// MongoDB
	MongoURI  string        `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	DBName    string        `envconfig:"DB_NAME" default:"viewtube"`
	DBTimeout time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	// JWT settings
	AccessTokenSecret  string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	RefreshTokenSecret string        `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	AccessTokenTTL     time.Duration `envconfig:"ACCESS_TOKEN_EXPIRY" default:"15m"`
	RefreshTokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_EXPIRY" default:"240h"` // 10 days

	// Media storage (S3-compatible)
	S3Endpoint      string `envconfig:"S3_ENDPOINT"`
	S3Region        string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket        string `envconfig:"S3_BUCKET" required:"true"`
	S3AccessKey     string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey     string `envconfig:"S3_SECRET_KEY" required:"true"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`

	// CORS settings
	CORSAllowedOrigins string `envconfig:"CORS_ORIGIN" default:"http://localhost:3000"`

	// Multipart upload limit in bytes.
	MaxUploadSize int64 `envconfig:"MAX_UPLOAD_SIZE" default:"5242880"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// LoadConfig loads configuration from the optional .env file and environment variables.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	return &cfg, nil
}

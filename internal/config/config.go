package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ImagePolicyBestEffort = "best-effort"
	ImagePolicyRequire    = "require"
)

type Config struct {
	Environment     string        `envconfig:"ENVIRONMENT" default:"production"`
	Port            string        `envconfig:"PORT" default:"8080"`
	DatabasePath    string        `envconfig:"DATABASE_PATH" default:"wardrobe.db"`
	AllowedOrigins  string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8081"`
	SessionDuration time.Duration `envconfig:"SESSION_DURATION" default:"720h"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28"`

	// Blob storage for clothing, outfit and profile photos
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"wardrobe-images"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`
	ImagePolicy string `envconfig:"IMAGE_POLICY" default:"best-effort"`

	MailgunDomain      string `envconfig:"MAILGUN_DOMAIN"`
	MailgunAPIKey      string `envconfig:"MAILGUN_API_KEY"`
	MailgunSenderEmail string `envconfig:"MAILGUN_SENDER_EMAIL" default:"noreply@wardrobe.app"`
	MailgunSenderName  string `envconfig:"MAILGUN_SENDER_NAME" default:"Wardrobe"`
	AppBaseURL         string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`

	GoogleClientID string `envconfig:"GOOGLE_CLIENT_ID"`

	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1h"`
	MetricsEnabled    bool          `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.ImagePolicy = strings.ToLower(strings.TrimSpace(cfg.ImagePolicy))
	if cfg.ImagePolicy == "" {
		cfg.ImagePolicy = ImagePolicyBestEffort
	}
	if cfg.ImagePolicy != ImagePolicyBestEffort && cfg.ImagePolicy != ImagePolicyRequire {
		return nil, fmt.Errorf("invalid IMAGE_POLICY %q: must be %q or %q", cfg.ImagePolicy, ImagePolicyBestEffort, ImagePolicyRequire)
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) RequireImages() bool {
	return c.ImagePolicy == ImagePolicyRequire
}

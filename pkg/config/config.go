package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is only accepted outside production.
const DefaultJWTSecret = "change-me"

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	JWTSecret    string
	JWTExpiresIn time.Duration

	MessageEncryptionKey string

	ClientURL          string
	CORSAllowedOrigins []string
	// TrustedProxies are the peers allowed to set X-Forwarded-For.
	TrustedProxies []string

	Storage StorageConfig

	PollSweepInterval time.Duration

	RateLimitRPS        float64
	RateLimitBurst      int
	LoginLimitPerMinute int

	SeedAdmin SeedAdmin
}

// StorageConfig selects and configures the attachment presigner.
type StorageConfig struct {
	Provider           string // s3, gcs or none
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	S3KeyID            string
	S3Secret           string
	PublicURL          string
	GCSBucket          string
	GCSCredentialsFile string
	URLTTL             time.Duration
}

// SeedAdmin is the super-admin account created by `wardenlink seed`.
type SeedAdmin struct {
	FullName  string
	Email     string
	ServiceID string
	Password  string
	CNIC      string
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "4000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	jwtTTL, err := time.ParseDuration(getEnv("JWT_EXPIRES_IN", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}

	uploadTTL, err := strconv.Atoi(getEnv("UPLOAD_URL_TTL_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_URL_TTL_MINUTES: %w", err)
	}

	sweep, err := strconv.Atoi(getEnv("POLL_SWEEP_INTERVAL_MINUTES", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_SWEEP_INTERVAL_MINUTES: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	loginLimit, err := strconv.Atoi(getEnv("LOGIN_RATE_LIMIT_PER_MINUTE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT_PER_MINUTE: %w", err)
	}

	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	cfg := &Config{
		Environment:          getEnv("ENVIRONMENT", "development"),
		ServerPort:           port,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiresIn:         jwtTTL,
		MessageEncryptionKey: os.Getenv("MESSAGE_ENCRYPTION_KEY"),
		ClientURL:            clientURL,
		CORSAllowedOrigins:   parseCSVEnv("CLIENT_URLS", []string{clientURL}),
		TrustedProxies:       parseCSVEnv("TRUSTED_PROXIES", nil),
		Storage: StorageConfig{
			Provider:           strings.ToLower(getEnv("STORAGE_PROVIDER", "none")),
			S3Bucket:           os.Getenv("S3_BUCKET"),
			S3Region:           getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:         os.Getenv("S3_ENDPOINT"),
			S3KeyID:            os.Getenv("S3_KEY_ID"),
			S3Secret:           os.Getenv("S3_SECRET"),
			PublicURL:          os.Getenv("S3_PUBLIC_URL"),
			GCSBucket:          os.Getenv("GCS_BUCKET"),
			GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
			URLTTL:             time.Duration(uploadTTL) * time.Minute,
		},
		PollSweepInterval:   time.Duration(sweep) * time.Minute,
		RateLimitRPS:        rps,
		RateLimitBurst:      burst,
		LoginLimitPerMinute: loginLimit,
		SeedAdmin: SeedAdmin{
			FullName:  getEnv("SEED_ADMIN_NAME", "Super Admin"),
			Email:     os.Getenv("SEED_ADMIN_EMAIL"),
			ServiceID: os.Getenv("SEED_ADMIN_SERVICE_ID"),
			Password:  os.Getenv("SEED_ADMIN_PASSWORD"),
			CNIC:      os.Getenv("SEED_ADMIN_CNIC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.PollSweepInterval <= 0 {
		errs = append(errs, errors.New("POLL_SWEEP_INTERVAL_MINUTES must be positive"))
	}
	switch c.Storage.Provider {
	case "none":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_PROVIDER=s3"))
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required when STORAGE_PROVIDER=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

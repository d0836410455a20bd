package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Env is the deployment environment ("development", "production", ...)
	Env string

	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Email     EmailConfig
	Blob      BlobConfig
	Headlines HeadlinesConfig
	Feed      FeedConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// AuthConfig holds token, OTP and admin settings
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	OTPTTL        time.Duration
	SweepInterval time.Duration
	AdminEmails   []string

	// ExposeCodeOnDispatchFailure returns the OTP in the response body when
	// the email provider fails. Ignored in production.
	ExposeCodeOnDispatchFailure bool

	RateLimitAttempts int
	RateLimitWindow   time.Duration
}

// EmailConfig selects and configures the OTP email sender
type EmailConfig struct {
	Provider     string // smtp, resend, log
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	ResendAPIKey string
	Timeout      time.Duration
}

// BlobConfig selects and configures image storage
type BlobConfig struct {
	Provider            string // disk, cloudinary
	UploadDir           string
	PublicBaseURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	MaxUploadSize       int64 // in bytes
}

// HeadlinesConfig selects and configures the external feed provider
type HeadlinesConfig struct {
	Provider        string // gnews, rss, static, none
	GNewsAPIKey     string
	GNewsBaseURL    string
	GNewsQuery      string
	GNewsLang       string
	GNewsCountry    string
	GNewsMax        int
	RSSURLs         []string
	FreshnessWindow time.Duration
	Timeout         time.Duration
	RefreshInterval time.Duration // 0 disables the background refresher
}

// FeedConfig holds aggregation settings
type FeedConfig struct {
	MaxItems int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

var (
	validEmailProviders     = map[string]bool{"smtp": true, "resend": true, "log": true}
	validBlobProviders      = map[string]bool{"disk": true, "cloudinary": true}
	validHeadlinesProviders = map[string]bool{"gnews": true, "rss": true, "static": true, "none": true}
)

// Load reads configuration from the environment. Variables found in the
// given dotenv files are applied first; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "news_aggregator"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:                   getEnv("JWT_SECRET", ""),
			TokenTTL:                    getDurationEnv("AUTH_TOKEN_TTL", 7*24*time.Hour),
			OTPTTL:                      getDurationEnv("AUTH_OTP_TTL", 5*time.Minute),
			SweepInterval:               getDurationEnv("AUTH_OTP_SWEEP_INTERVAL", 5*time.Minute),
			AdminEmails:                 getListEnv("ADMIN_EMAILS", nil),
			ExposeCodeOnDispatchFailure: getBoolEnv("AUTH_EXPOSE_CODE_ON_DISPATCH_FAILURE", false),
			RateLimitAttempts:           getIntEnv("AUTH_RATE_LIMIT_ATTEMPTS", 5),
			RateLimitWindow:             getDurationEnv("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Email: EmailConfig{
			Provider:     getEnv("EMAIL_PROVIDER", "log"),
			From:         getEnv("EMAIL_FROM", "News Aggregator <no-reply@localhost>"),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			Timeout:      getDurationEnv("EMAIL_TIMEOUT", 15*time.Second),
		},
		Blob: BlobConfig{
			Provider:            getEnv("BLOB_PROVIDER", "disk"),
			UploadDir:           getEnv("UPLOAD_DIR", "./data/uploads"),
			PublicBaseURL:       getEnv("UPLOAD_PUBLIC_URL", "/uploads"),
			CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "news-articles"),
			MaxUploadSize:       getInt64Env("BLOB_MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
		},
		Headlines: HeadlinesConfig{
			Provider:        getEnv("HEADLINES_PROVIDER", "none"),
			GNewsAPIKey:     getEnv("GNEWS_API_KEY", ""),
			GNewsBaseURL:    getEnv("GNEWS_BASE_URL", "https://gnews.io/api/v4"),
			GNewsQuery:      getEnv("GNEWS_QUERY", ""),
			GNewsLang:       getEnv("GNEWS_LANG", "en"),
			GNewsCountry:    getEnv("GNEWS_COUNTRY", "us"),
			GNewsMax:        getIntEnv("GNEWS_MAX", 10),
			RSSURLs:         getListEnv("RSS_URLS", nil),
			FreshnessWindow: getDurationEnv("HEADLINES_FRESHNESS_WINDOW", 30*time.Minute),
			Timeout:         getDurationEnv("HEADLINES_TIMEOUT", 15*time.Second),
			RefreshInterval: getDurationEnv("HEADLINES_REFRESH_INTERVAL", 0),
		},
		Feed: FeedConfig{
			MaxItems: getIntEnv("FEED_MAX_ITEMS", 30),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Auth.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !validEmailProviders[c.Email.Provider] {
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}
	if !validBlobProviders[c.Blob.Provider] {
		return fmt.Errorf("unknown BLOB_PROVIDER %q", c.Blob.Provider)
	}
	if !validHeadlinesProviders[c.Headlines.Provider] {
		return fmt.Errorf("unknown HEADLINES_PROVIDER %q", c.Headlines.Provider)
	}
	if c.Email.Provider == "resend" && c.Email.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required for the resend provider")
	}
	if c.Headlines.Provider == "gnews" && c.Headlines.GNewsAPIKey == "" {
		return fmt.Errorf("GNEWS_API_KEY is required for the gnews provider")
	}
	if c.Headlines.Provider == "rss" && len(c.Headlines.RSSURLs) == 0 {
		return fmt.Errorf("RSS_URLS is required for the rss provider")
	}
	if c.Feed.MaxItems <= 0 {
		return fmt.Errorf("FEED_MAX_ITEMS must be positive")
	}
	return nil
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS
func (c *AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if strings.ToLower(admin) == email {
			return true
		}
	}
	return false
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping empty entries
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Pagination PaginationConfig `yaml:"pagination"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Ingest     IngestConfig     `yaml:"ingest"`

	location *time.Location
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Debug    bool   `yaml:"debug"`
	Port     string `yaml:"port"`
	Host     string `yaml:"host"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// AuthConfig describes how bearer tokens minted by the identity provider
// are verified. At least one of JWTSecret and JWKSURL must be set.
type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	JWKSURL             string        `yaml:"jwks_url"`
	Issuer              string        `yaml:"issuer"`
	Audience            string        `yaml:"audience"`
	Leeway              time.Duration `yaml:"leeway"`
	JWKSRefreshInterval time.Duration `yaml:"jwks_refresh_interval"`
	JWKSClientTimeout   time.Duration `yaml:"jwks_client_timeout"`
	TokenCacheSize      int           `yaml:"token_cache_size"`
	TokenCacheTTL       time.Duration `yaml:"token_cache_ttl"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// PaginationConfig bounds list page sizes. MaxLimit 0 disables the cap.
type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// RateLimitConfig selects the per-client limiter. With RedisAddr set a
// fixed window shared by all replicas is used, otherwise an in-process
// token bucket.
type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled"`
	RPS           float64       `yaml:"rps"`
	Burst         int           `yaml:"burst"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	Window        time.Duration `yaml:"window"`
	WindowLimit   int           `yaml:"window_limit"`
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed. Empty means clients are keyed by peer address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// IngestConfig configures the Google Form webhook and CSV import.
type IngestConfig struct {
	WebhookSecret  string `yaml:"webhook_secret"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

var globalConfig *Config

// Default returns the built-in configuration before any file or
// environment overrides are applied.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "Inquiry Desk API",
			Version:  "1.0.0",
			Port:     "8000",
			Host:     "0.0.0.0",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			URL:          "sqlite:///./inquiries.db",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			Audience:            "authenticated",
			Leeway:              30 * time.Second,
			JWKSRefreshInterval: time.Hour,
			JWKSClientTimeout:   10 * time.Second,
			TokenCacheSize:      1024,
			TokenCacheTTL:       time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Webhook-Secret"},
			MaxAge:         86400,
		},
		Pagination: PaginationConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			RPS:         10,
			Burst:       20,
			RedisPrefix: "inquirydesk:ratelimit",
			Window:      time.Minute,
			WindowLimit: 600,
		},
		Ingest: IngestConfig{
			MaxUploadBytes: 5 << 20,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and finally environment variables (including .env).
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}
	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = config
	return config, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.App.Name = getEnv("APP_NAME", c.App.Name)
	c.App.Version = getEnv("APP_VERSION", c.App.Version)
	c.App.Debug = getEnvAsBool("DEBUG", c.App.Debug)
	c.App.Port = getEnv("PORT", c.App.Port)
	c.App.Host = getEnv("HOST", c.App.Host)
	c.App.Timezone = getEnv("APP_TIMEZONE", c.App.Timezone)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWKSURL = getEnv("JWKS_URL", c.Auth.JWKSURL)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)
	c.Auth.Audience = getEnv("JWT_AUDIENCE", c.Auth.Audience)
	c.Auth.Leeway = getEnvAsDuration("JWT_LEEWAY", c.Auth.Leeway)
	c.Auth.JWKSRefreshInterval = getEnvAsDuration("JWKS_REFRESH_INTERVAL", c.Auth.JWKSRefreshInterval)
	c.Auth.JWKSClientTimeout = getEnvAsDuration("JWKS_CLIENT_TIMEOUT", c.Auth.JWKSClientTimeout)
	c.Auth.TokenCacheSize = getEnvAsInt("TOKEN_CACHE_SIZE", c.Auth.TokenCacheSize)
	c.Auth.TokenCacheTTL = getEnvAsDuration("TOKEN_CACHE_TTL", c.Auth.TokenCacheTTL)

	c.CORS.AllowedOrigins = getEnvAsSlice("ALLOWED_ORIGINS", c.CORS.AllowedOrigins)

	c.Pagination.DefaultLimit = getEnvAsInt("PAGINATION_DEFAULT_LIMIT", c.Pagination.DefaultLimit)
	c.Pagination.MaxLimit = getEnvAsInt("PAGINATION_MAX_LIMIT", c.Pagination.MaxLimit)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RPS = getEnvAsFloat("RATE_LIMIT_RPS", c.RateLimit.RPS)
	c.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.Burst)
	c.RateLimit.RedisAddr = getEnv("REDIS_ADDR", c.RateLimit.RedisAddr)
	c.RateLimit.RedisPassword = getEnv("REDIS_PASSWORD", c.RateLimit.RedisPassword)
	c.RateLimit.RedisPrefix = getEnv("RATE_LIMIT_REDIS_PREFIX", c.RateLimit.RedisPrefix)
	c.RateLimit.Window = getEnvAsDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.WindowLimit = getEnvAsInt("RATE_LIMIT_WINDOW_LIMIT", c.RateLimit.WindowLimit)
	c.RateLimit.TrustedProxies = getEnvAsSlice("RATE_LIMIT_TRUSTED_PROXIES", c.RateLimit.TrustedProxies)

	c.Ingest.WebhookSecret = getEnv("FORM_WEBHOOK_SECRET", c.Ingest.WebhookSecret)
	c.Ingest.MaxUploadBytes = int64(getEnvAsInt("INGEST_MAX_UPLOAD_BYTES", int(c.Ingest.MaxUploadBytes)))
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		return fmt.Errorf("JWT_SECRET or JWKS_URL must be set")
	}
	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.Pagination.DefaultLimit <= 0 {
		return fmt.Errorf("PAGINATION_DEFAULT_LIMIT must be greater than 0")
	}
	if cfg.Pagination.MaxLimit < 0 {
		return fmt.Errorf("PAGINATION_MAX_LIMIT must not be negative")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RedisAddr == "" && cfg.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	for _, p := range cfg.RateLimit.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("RATE_LIMIT_TRUSTED_PROXIES: invalid address or CIDR %q", p)
		}
	}
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", cfg.App.Timezone, err)
	}
	cfg.location = loc
	return nil
}

// Location returns the time zone used for age and dashboard calculations.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		// Load default config if not loaded
		config, _ := Load()
		return config
	}
	return globalConfig
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
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
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") ||
		strings.HasPrefix(c.URL, "postgresql://") ||
		strings.Contains(c.URL, "host=")
}

// GetPostgresDSN returns a DSN the pgx driver accepts. URL-style values get
// sslmode=disable unless the URL already names a mode; keyword DSNs are
// passed through.
func (c *DatabaseConfig) GetPostgresDSN() string {
	if strings.Contains(c.URL, "host=") {
		return c.URL
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return c.URL
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	if path, ok := strings.CutPrefix(c.URL, "sqlite:///"); ok {
		return path
	}
	if path, ok := strings.CutPrefix(c.URL, "sqlite://"); ok {
		return path
	}
	return c.URL
}

// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment constants.
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Billing   BillingConfig
	Demo      DemoConfig
	Worker    WorkerConfig
	Sweeper   SweeperConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
	// SelfHosted disables the demo-repo injection on the repo list.
	SelfHosted bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the Redis address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	// CleanupInterval controls how often idle per-client limiters are
	// dropped.
	CleanupInterval time.Duration
}

// AuthConfig holds bearer-token configuration.
type AuthConfig struct {
	JWTSecret string
}

// BillingConfig holds the external billing gateway configuration.
type BillingConfig struct {
	GatewayURL string
	Timeout    time.Duration
}

// DemoConfig identifies the demo repository injected for new owners.
type DemoConfig struct {
	Provider string
	Owner    string
	RepoName string
}

// WorkerConfig holds asynq worker configuration.
type WorkerConfig struct {
	Enabled     bool
	Concurrency int
	Queue       string
}

// SweeperConfig holds the trial-expiry sweeper schedule.
type SweeperConfig struct {
	Enabled  bool
	Schedule string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:       getEnv("APP_NAME", "covermap-api"),
			Env:        getEnv("APP_ENV", "development"),
			Debug:      getEnvBool("APP_DEBUG", false),
			SelfHosted: getEnvBool("APP_SELF_HOSTED", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodySize:     int64(getEnvInt("SERVER_MAX_BODY_SIZE", 1<<20)),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "covermap"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "covermap"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type", "X-Request-ID"}),
			MaxAge:         getEnvInt("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:             getEnvFloat("RATE_LIMIT_RPS", 20),
			Burst:           getEnvInt("RATE_LIMIT_BURST", 40),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 3*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Billing: BillingConfig{
			GatewayURL: getEnv("BILLING_GATEWAY_URL", "http://localhost:9090"),
			Timeout:    getEnvDuration("BILLING_TIMEOUT", 15*time.Second),
		},
		Demo: DemoConfig{
			Provider: getEnv("DEMO_REPO_PROVIDER", "gh"),
			Owner:    getEnv("DEMO_REPO_OWNER", "covermap"),
			RepoName: getEnv("DEMO_REPO_NAME", "covermap-demo"),
		},
		Worker: WorkerConfig{
			Enabled:     getEnvBool("WORKER_ENABLED", true),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 5),
			Queue:       getEnv("WORKER_QUEUE", "default"),
		},
		Sweeper: SweeperConfig{
			Enabled:  getEnvBool("TRIAL_SWEEPER_ENABLED", true),
			Schedule: getEnv("TRIAL_SWEEPER_SCHEDULE", "@hourly"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required in production")
	}
	if c.Billing.GatewayURL == "" {
		return fmt.Errorf("BILLING_GATEWAY_URL is required")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Environment helpers

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}

// Package config provides centralized configuration management for the console.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// Credentials are never compiled in: store endpoints, identity API keys and
// service-account files all come from the environment (or a .env file).
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Identity IdentityConfig
	Session  SessionConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// LongPolling serves import progress as long-poll JSON instead of SSE.
	// Useful behind proxies that buffer event streams.
	LongPolling bool `env:"PROGRESS_LONG_POLLING" default:"false"`

	// LongPollWait is how long a long-poll request waits for a new update (default: 25s)
	LongPollWait time.Duration `env:"PROGRESS_LONG_POLL_WAIT" default:"25s"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	// Driver selects the backend: postgres, mongo or memory (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the store endpoint (postgres DSN or mongodb URI).
	// DATABASE_URL is accepted for compatibility.
	URL string `env:"STORE_URL" envAlt:"DATABASE_URL"`

	// Database is the MongoDB database name (default: masterdata)
	Database string `env:"STORE_DATABASE" default:"masterdata"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"STORE_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"STORE_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"STORE_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"STORE_MAX_CONN_IDLE_TIME" default:"30m"`

	// ConnectTimeout bounds the initial connect and ping (default: 10s)
	ConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT" default:"10s"`

	// AutoMigrate applies embedded postgres migrations at startup (default: true)
	AutoMigrate bool `env:"STORE_AUTO_MIGRATE" default:"true"`
}

// IdentityConfig holds identity provider settings.
type IdentityConfig struct {
	// Driver selects the backend: firebase or memory (default: firebase)
	Driver string `env:"IDENTITY_DRIVER" default:"firebase"`

	// ProjectID is the identity project identifier.
	ProjectID string `env:"IDENTITY_PROJECT_ID"`

	// APIKey is the public web API key used for password sign-in.
	APIKey string `env:"IDENTITY_API_KEY"`

	// CredentialsFile is the service-account JSON used for account management.
	// Empty means application default credentials.
	CredentialsFile string `env:"IDENTITY_CREDENTIALS_FILE" envAlt:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Endpoint overrides the sign-in API endpoint (emulators, proxies).
	Endpoint string `env:"IDENTITY_ENDPOINT"`

	// SeedUsers seeds the memory backend as email:password pairs.
	SeedUsers []string `env:"IDENTITY_SEED_USERS"`
}

// SessionConfig holds operator session settings.
type SessionConfig struct {
	// Store selects the session backend: memory or redis (default: memory)
	Store string `env:"SESSION_STORE" default:"memory"`

	// RedisURL is the redis connection URL when Store is redis.
	RedisURL string `env:"SESSION_REDIS_URL" envAlt:"REDIS_URL"`

	// TTL is how long a signed-in session stays valid (default: 12h)
	TTL time.Duration `env:"SESSION_TTL" default:"12h"`

	// CookieName is the session cookie name (default: mc_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"mc_session"`

	// CookieSecure marks the cookie Secure (default: false)
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" default:"false"`
}

// ImportConfig holds CSV import processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 32MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"33554432"`

	// MaxConcurrent is the maximum number of parallel import runs (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single run; 0 disables the bound (default: 0s)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"0s"`

	// ResultRetention is how long finished runs stay queryable (default: 10m)
	ResultRetention time.Duration `env:"IMPORT_RESULT_RETENTION" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ImportLimit is requests per minute for the import submit endpoint (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File additionally writes logs to a rotating file when set.
	File string `env:"LOG_FILE"`

	// MaxSizeMB is the size at which the log file rotates (default: 100)
	MaxSizeMB int `env:"LOG_MAX_SIZE_MB" default:"100"`

	// MaxBackups is the number of rotated files kept (default: 5)
	MaxBackups int `env:"LOG_MAX_BACKUPS" default:"5"`

	// MaxAgeDays is how long rotated files are kept (default: 28)
	MaxAgeDays int `env:"LOG_MAX_AGE_DAYS" default:"28"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Path is the metrics endpoint path (default: /metrics)
	Path string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

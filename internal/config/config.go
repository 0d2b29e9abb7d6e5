// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all service configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Import      ImportConfig
	Auth        AuthConfig
	Events      EventsConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Logging     LoggingConfig
	Maintenance MaintenanceConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	// Not needed when InMemory is set.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// InMemory selects the in-memory store instead of PostgreSQL.
	// Intended for local development and tests, no data survives a restart.
	InMemory bool `env:"DB_IN_MEMORY" envAlt:"MEMORY" default:"false"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds roster CSV import settings.
type ImportConfig struct {
	// MaxCSVBytes is the maximum accepted csv_data payload size (default: 2MB)
	MaxCSVBytes int64 `env:"IMPORT_MAX_CSV_BYTES" default:"2097152"`

	// MaxRows is the maximum number of data rows per import (default: 2000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"2000"`

	// MaxConcurrent is the maximum number of parallel imports across all leagues (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`

	// Timeout is the maximum duration for a single import (default: 2m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`

	// CloseDelay is how long a clean result stays visible before the session
	// auto-dismisses. Sessions with row errors never auto-dismiss. (default: 5s)
	CloseDelay time.Duration `env:"IMPORT_CLOSE_DELAY" default:"5s"`

	// SessionTTL is how long a finished session with errors is retained before
	// the maintenance sweep drops it (default: 30m)
	SessionTTL time.Duration `env:"IMPORT_SESSION_TTL" default:"30m"`
}

// AuthConfig holds Discord OAuth settings.
// Leaving ClientID empty disables authentication (local development).
type AuthConfig struct {
	// DiscordClientID is the OAuth2 application client ID
	DiscordClientID string `env:"DISCORD_CLIENT_ID"`

	// DiscordClientSecret is the OAuth2 application client secret
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`

	// DiscordRedirectURL is the registered callback URL (default: http://localhost:8080/auth/callback)
	DiscordRedirectURL string `env:"DISCORD_REDIRECT_URL" default:"http://localhost:8080/auth/callback"`

	// SessionTTL is how long a login session stays valid (default: 12h)
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" default:"12h"`
}

// EventsConfig holds domain event publishing settings.
type EventsConfig struct {
	// NATSURL is the NATS server URL. Empty keeps events in-process only.
	NATSURL string `env:"NATS_URL"`

	// SubjectPrefix is the subject prefix for published events (default: vrl.events)
	SubjectPrefix string `env:"EVENTS_SUBJECT_PREFIX" default:"vrl.events"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
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
}

// MaintenanceConfig holds background maintenance settings.
type MaintenanceConfig struct {
	// SweepInterval is how often expired sessions and old audit entries are
	// cleaned up (default: 5m)
	SweepInterval time.Duration `env:"MAINTENANCE_SWEEP_INTERVAL" default:"5m"`

	// AuditRetentionDays is days to keep audit log entries (default: 180)
	AuditRetentionDays int `env:"AUDIT_RETENTION_DAYS" default:"180"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthEnabled reports whether Discord login is configured.
func (c *AuthConfig) AuthEnabled() bool {
	return c.DiscordClientID != ""
}

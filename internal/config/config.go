// Package config loads server configuration from environment variables,
// applies defaults and validates everything on startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Import   ImportConfig
	Images   ImagesConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3001)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3001"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request except imports, which use
	// UPLOAD_TIMEOUT (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig selects and tunes the inventory store.
type DatabaseConfig struct {
	// URL names the store: memory:, sqlite:<path> or postgres://... (required)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns and MinConns size the postgres pool
	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations at startup (default: true)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// UploadConfig bounds CSV uploads and import commits.
type UploadConfig struct {
	// MaxFileSize is the largest accepted CSV in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the number of imports committing at once (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an import waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single import commit (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`

	// ClearTimeout bounds clear-all (default: 30s)
	ClearTimeout time.Duration `env:"UPLOAD_CLEAR_TIMEOUT" envAlt:"UPLOAD_RESET_TIMEOUT" default:"30s"`
}

// ImportConfig tunes header matching and staging.
type ImportConfig struct {
	// PreviewRowLimit caps rows shown in a staging preview (default: 200)
	PreviewRowLimit int `env:"IMPORT_PREVIEW_ROW_LIMIT" default:"200"`

	// SynonymsFile is an optional YAML file of header synonyms layered over
	// the built-in table
	SynonymsFile string `env:"IMPORT_SYNONYMS_FILE"`

	// SessionTTL expires untouched staging sessions (default: 2h)
	SessionTTL time.Duration `env:"IMPORT_SESSION_TTL" default:"2h"`

	// MaxSessions caps concurrent staging sessions (default: 64)
	MaxSessions int `env:"IMPORT_MAX_SESSIONS" default:"64"`
}

// ImagesConfig locates the card image database.
type ImagesConfig struct {
	// Root is the image-database directory on disk (default: ./image-database)
	Root string `env:"IMAGES_ROOT" default:"./image-database"`

	// BaseURL prefixes image URLs; empty yields host-relative URLs
	BaseURL string `env:"IMAGES_BASE_URL"`

	CacheSize int           `env:"IMAGES_CACHE_SIZE" default:"256"`
	CacheTTL  time.Duration `env:"IMAGES_CACHE_TTL" default:"5m"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for upload and import endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP adds a Content-Security-Policy header (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// MigrationConfig controls whether embedded migrations run at startup.
type MigrationConfig interface {
	DatabaseConfig
	IsMigrationsEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SessionConfig provides settings for session tokens.
type SessionConfig interface {
	GetSessionSecret() string
	GetSessionTTL() time.Duration
	GetSessionCookieName() string
	GetSessionCookieSecure() bool
	IsDemoAuth() bool
}

// APIKeyConfig provides the static API key checked by the auth gate.
type APIKeyConfig interface {
	GetAPIKey() string
}

// EntityConfig provides the closed vocabulary of definition entities.
type EntityConfig interface {
	GetAllowedEntities() []string
}

// MockConfig provides settings for the dynamic route registry and mock server.
type MockConfig interface {
	GetMockAddr() string
	GetMockRebuildInterval() time.Duration
	GetMockRebuildTimeout() time.Duration
	IsMockAuthRequired() bool
}

// OpenAPIConfig provides the server URLs advertised in generated documents.
type OpenAPIConfig interface {
	GetAppBaseURL() string
	GetMockBaseURL() string
}

// RedisConfig provides the optional Redis connection.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	MockAddr            string
	DatabaseURL         string
	MigrationsEnabled   bool
	APIKey              string
	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	AuthMode            string
	AllowedEntities     []string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	AppBaseURL          string
	MockBaseURL         string
	MockRebuildInterval time.Duration
	MockRebuildTimeout  time.Duration
	MockRequireAuth     bool
	RedisURL            string
	RedisTLSInsecure    bool
}

// DefaultEntities is used when ALLOWED_ENTITIES is not set.
var DefaultEntities = []string{
	"Patients",
	"Sessions",
	"Machines",
	"Prescriptions",
	"Treatments",
	"LabResults",
	"Users",
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// MigrationConfig implementation
func (c *Config) IsMigrationsEnabled() bool { return c.MigrationsEnabled }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SessionConfig implementation
func (c *Config) GetSessionSecret() string     { return c.SessionSecret }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }
func (c *Config) GetSessionCookieName() string { return c.SessionCookieName }
func (c *Config) GetSessionCookieSecure() bool { return c.SessionCookieSecure }
func (c *Config) IsDemoAuth() bool             { return c.AuthMode != "real" }

// APIKeyConfig implementation
func (c *Config) GetAPIKey() string { return c.APIKey }

// EntityConfig implementation
func (c *Config) GetAllowedEntities() []string { return c.AllowedEntities }

// MockConfig implementation
func (c *Config) GetMockAddr() string                   { return c.MockAddr }
func (c *Config) GetMockRebuildInterval() time.Duration { return c.MockRebuildInterval }
func (c *Config) GetMockRebuildTimeout() time.Duration  { return c.MockRebuildTimeout }
func (c *Config) IsMockAuthRequired() bool              { return c.MockRequireAuth }

// OpenAPIConfig implementation
func (c *Config) GetAppBaseURL() string  { return c.AppBaseURL }
func (c *Config) GetMockBaseURL() string { return c.MockBaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	env := getEnv("APP_ENV", "development")
	sessionCookieSecure := strings.EqualFold(getEnv("SESSION_COOKIE_SECURE", ""), "true")
	if getEnv("SESSION_COOKIE_SECURE", "") == "" {
		sessionCookieSecure = strings.EqualFold(env, "production")
	}

	entities := splitCSV(getEnv("ALLOWED_ENTITIES", ""))
	if len(entities) == 0 {
		entities = append([]string(nil), DefaultEntities...)
	}

	cfg := &Config{
		Env:                 env,
		HTTPAddr:            getEnv("HTTP_ADDR", ":3001"),
		MockAddr:            getEnv("MOCK_API_ADDR", ":"+getEnv("MOCK_API_PORT", "60341")),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsEnabled:   !strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "false"),
		APIKey:              getEnv("API_KEY", ""),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionTTL:          time.Duration(mustInt64(getEnv("EXPIRATION_TIME", "15"))) * time.Minute,
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "hemodilab_session"),
		SessionCookieSecure: sessionCookieSecure,
		AuthMode:            strings.ToLower(getEnv("AUTH_MODE", "demo")),
		AllowedEntities:     entities,
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:3001"),
		MockBaseURL:         getEnv("MOCK_API_BASE_URL", ""),
		MockRebuildInterval: mustDuration(getEnv("MOCK_REBUILD_INTERVAL", "30s")),
		MockRebuildTimeout:  mustDuration(getEnv("MOCK_REBUILD_TIMEOUT", "5s")),
		MockRequireAuth:     strings.EqualFold(getEnv("MOCK_REQUIRE_AUTH", "false"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
	}

	if cfg.MockBaseURL == "" {
		cfg.MockBaseURL = localURL(cfg.MockAddr)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AuthMode != "real" && cfg.AuthMode != "demo" {
		return nil, fmt.Errorf("AUTH_MODE must be either real or demo")
	}
	if cfg.SessionSecret == "" {
		if strings.EqualFold(env, "production") {
			return nil, fmt.Errorf("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = "demo-secret-key"
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("EXPIRATION_TIME must be a positive number of minutes")
	}
	if cfg.MockRebuildInterval <= 0 {
		return nil, fmt.Errorf("MOCK_REBUILD_INTERVAL must be a positive duration")
	}
	if cfg.MockRebuildTimeout <= 0 {
		return nil, fmt.Errorf("MOCK_REBUILD_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// localURL turns a listen address into a URL a local client can reach.
// Wildcard and empty hosts become localhost.
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:" + strings.TrimPrefix(addr, ":")
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

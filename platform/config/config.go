// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// APIKeyConfig provides the shared secret used by the marketing-site caller.
type APIKeyConfig interface {
	GetAPIKey() string
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsDatabaseEnabled() bool
}

// RedisConfig provides Redis settings shared by the guard store and the
// asynq dispatcher.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	IsRedisEnabled() bool
}

// SchedulerConfig provides settings for the asynq forward queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// TrackingConfig provides settings for the attribution pipeline itself.
type TrackingConfig interface {
	GetTrackingVersion() string
	GetDefaultPhoneRegion() string
	GetSessionTTL() time.Duration
}

// SinkConfig provides settings for the event sink and collector forwarding.
type SinkConfig interface {
	GetCollectorURL() string
	IsCollectorEnabled() bool
	GetSinkJournalSize() int
}

// ScoringConfig provides settings for the lead scoring engine.
type ScoringConfig interface {
	GetScoringWeightsPath() string
}

// =============================================================================
// Config Implementation
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	APIKey string

	DatabaseURL string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	TrackingVersion    string
	DefaultPhoneRegion string
	SessionTTL         time.Duration

	CollectorURL    string
	SinkJournalSize int

	ScoringWeightsPath string
}

// Load reads configuration from the environment. A .env file is honored in
// development but its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		CORSAllowAll:   getBool("CORS_ALLOW_ALL", false),
		CORSOrigins:    splitNonEmpty(getEnv("CORS_ORIGINS", "")),
		CORSAllowCreds: getBool("CORS_ALLOW_CREDENTIALS", false),

		APIKey: os.Getenv("TRACKING_API_KEY"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "tracking"),
		AsynqConcurrency: getInt("ASYNQ_CONCURRENCY", 10),

		TrackingVersion:    getEnv("WM_TRACKING_VERSION", "2.1.0"),
		DefaultPhoneRegion: getEnv("PHONE_DEFAULT_REGION", "US"),
		SessionTTL:         getDuration("SESSION_TTL", 30*time.Minute),

		CollectorURL:    os.Getenv("COLLECTOR_URL"),
		SinkJournalSize: getInt("SINK_JOURNAL_SIZE", 256),

		ScoringWeightsPath: os.Getenv("SCORING_WEIGHTS_PATH"),
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	return cfg, nil
}

// HTTPConfig implementation

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// APIKeyConfig implementation

func (c *Config) GetAPIKey() string { return c.APIKey }

// DatabaseConfig implementation

func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) IsDatabaseEnabled() bool { return c.DatabaseURL != "" }

// RedisConfig / SchedulerConfig implementation

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) IsRedisEnabled() bool      { return c.RedisURL != "" }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// TrackingConfig implementation

func (c *Config) GetTrackingVersion() string    { return c.TrackingVersion }
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }
func (c *Config) GetSessionTTL() time.Duration  { return c.SessionTTL }

// SinkConfig implementation

func (c *Config) GetCollectorURL() string  { return c.CollectorURL }
func (c *Config) IsCollectorEnabled() bool { return c.CollectorURL != "" }
func (c *Config) GetSinkJournalSize() int  { return c.SinkJournalSize }

// ScoringConfig implementation

func (c *Config) GetScoringWeightsPath() string { return c.ScoringWeightsPath }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitNonEmpty(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

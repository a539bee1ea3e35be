package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for all services
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Counter CounterConfig `yaml:"counter"`
	Redis   RedisConfig   `yaml:"redis"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Environment    string        `yaml:"environment"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	UploadMaxBytes int64         `yaml:"upload_max_bytes"`
}

// StorageConfig holds workspace storage configuration
type StorageConfig struct {
	Type          string        `yaml:"type"` // local
	LocalPath     string        `yaml:"local_path"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// SessionConfig holds cookie session settings
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	Secret     string        `yaml:"secret"`
	MaxAge     time.Duration `yaml:"max_age"`
	Secure     bool          `yaml:"secure"`
}

// CounterConfig selects where next-index counters live
type CounterConfig struct {
	Type string `yaml:"type"` // memory, redis
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// RenderConfig holds thumbnail rendering settings
type RenderConfig struct {
	ThumbnailWidth int     `yaml:"thumbnail_width"`
	DPI            float64 `yaml:"dpi"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			Environment:    getEnv("APP_ENV", "development"),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 64<<20)),
		},
		Storage: StorageConfig{
			Type:          getEnv("STORAGE_TYPE", "local"),
			LocalPath:     getEnv("STORAGE_LOCAL_PATH", defaultWorkspaceRoot()),
			SweepInterval: getEnvDuration("STORAGE_SWEEP_INTERVAL", 15*time.Minute),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "pdfbinder"),
			Secret:     getEnv("SESSION_SECRET", "change-me-session-secret"),
			MaxAge:     getEnvDuration("SESSION_MAX_AGE", 24*time.Hour),
			Secure:     getEnvBool("SESSION_SECURE", false),
		},
		Counter: CounterConfig{
			Type: getEnv("COUNTER_TYPE", "memory"),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvInt("REDIS_PORT", 6379),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "pdfbinder"),
		},
		Render: RenderConfig{
			ThumbnailWidth: getEnvInt("RENDER_THUMBNAIL_WIDTH", 300),
			DPI:            getEnvFloat("RENDER_DPI", 72),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks settings that would otherwise fail at first request
func (c *Config) Validate() error {
	if c.Storage.LocalPath == "" {
		return fmt.Errorf("storage local path must not be empty")
	}
	if c.Server.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive, got %d", c.Server.UploadMaxBytes)
	}
	if c.Render.ThumbnailWidth <= 0 {
		return fmt.Errorf("thumbnail width must be positive, got %d", c.Render.ThumbnailWidth)
	}
	if c.Server.IsProduction() && len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 bytes in production")
	}
	switch c.Counter.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported counter type: %s", c.Counter.Type)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (s *ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddr returns the Redis address
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SetupLogging configures the global zerolog logger
func (l *LoggingConfig) SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if l.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func defaultWorkspaceRoot() string {
	return filepath.Join(os.TempDir(), "pdfbinder")
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers often ship without zoneinfo

	"github.com/joho/godotenv"

	"github.com/tripdesk/backend/internal/auth"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Dashboard
	SnapshotInterval time.Duration
	TrendDays        int
	Timezone         string
	Location         *time.Location // calendar-day bucketing

	// Auth
	Env                string
	SkipAuth           bool
	VerifyJWTSignature bool
	OIDCIssuer         string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Timezone:           getEnv("TIMEZONE", "UTC"),
		Env:                getEnv("ENV", ""),
		SkipAuth:           getEnv("SKIP_AUTH", "") == "true",
		VerifyJWTSignature: getEnv("VERIFY_JWT_SIGNATURE", "") == "true",
		OIDCIssuer:         getEnv("OIDC_ISSUER", ""),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	config.SnapshotInterval, err = time.ParseDuration(getEnv("SNAPSHOT_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: %w", err)
	}
	if config.SnapshotInterval <= 0 {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: must be positive")
	}

	config.TrendDays, err = strconv.Atoi(getEnv("TREND_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("invalid TREND_DAYS: %w", err)
	}

	config.Location, err = time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// Auth returns the authenticator settings
func (c *Config) Auth() auth.Config {
	return auth.Config{
		SkipAuth:        c.SkipAuth,
		VerifySignature: c.VerifyJWTSignature,
		Env:             c.Env,
		OIDCIssuer:      c.OIDCIssuer,
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Report engine
	ReportTimezone string
	SlotAlignment  time.Duration
	CacheTTL       time.Duration

	// Upstream reporting API
	FeedBaseURL string
	FeedToken   string
	FeedTimeout time.Duration

	// WebSocket
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ReportTimezone: getEnv("REPORT_TIMEZONE", "Europe/Berlin"),
		FeedBaseURL:    getEnv("FEED_BASE_URL", "http://localhost:9090/api"),
		FeedToken:      getEnv("FEED_TOKEN", ""),
	}

	// Parse slot alignment (minutes)
	alignment, err := strconv.Atoi(getEnv("SLOT_ALIGNMENT_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_ALIGNMENT_MINUTES: %w", err)
	}
	if alignment <= 0 {
		return nil, fmt.Errorf("invalid SLOT_ALIGNMENT_MINUTES: must be positive, got %d", alignment)
	}
	config.SlotAlignment = time.Duration(alignment) * time.Minute

	// Parse report cache TTL (seconds, 0 disables caching)
	cacheTTL, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL: %w", err)
	}
	config.CacheTTL = time.Duration(cacheTTL) * time.Second

	// Parse upstream feed timeout
	feedTimeout, err := strconv.Atoi(getEnv("FEED_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}
	config.FeedTimeout = time.Duration(feedTimeout) * time.Second

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

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

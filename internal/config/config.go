package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	LogLevel    string
	LogFile     string

	// DefaultTimezone resolves "today" for users without a stored zone.
	DefaultTimezone string
	// StreakScanCap bounds the backward streak walk, in days. 0 disables it.
	StreakScanCap int
	// MaxCatchUpDays bounds how many missed evaluation days a lazy read replays.
	MaxCatchUpDays int
	// SweepInterval drives the background vitality job. 0 disables it.
	SweepInterval time.Duration
}

func Load() *Config {
	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "momentum.db"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC"),
		StreakScanCap:   getEnvInt("STREAK_SCAN_CAP", 3650),
		MaxCatchUpDays:  getEnvInt("VITALITY_MAX_CATCHUP_DAYS", 60),
		SweepInterval:   getEnvDuration("VITALITY_SWEEP_INTERVAL", time.Hour),
	}
}

// DefaultLocation returns the configured fallback zone, or UTC if it does not load.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

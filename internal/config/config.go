package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the client-side settings, loaded from the environment with
// optional .env support.
type Config struct {
	// Archive server
	APIURL      string        `env:"SHERRY_API_URL" default:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"SHERRY_HTTP_TIMEOUT" default:"10s"`

	// Local installation state (device id, token, history)
	StatePath string `env:"SHERRY_STATE_PATH" default:"$HOME/.sherry/state.db"`

	// Reading
	CommentPageLimit int           `env:"SHERRY_PAGE_LIMIT" default:"20"`
	HeaderHideDelay  time.Duration `env:"SHERRY_HEADER_HIDE_DELAY" default:"3s"`

	// Telemetry opt-out
	TrackingDisabled bool `env:"SHERRY_TRACKING_DISABLED" default:"false"`
}

// Load reads configuration from environment variables, after sourcing a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	// Missing .env is fine; system env vars still apply.
	_ = godotenv.Load(".env")

	config := &Config{}

	if err := loadEnvString(&config.APIURL, "SHERRY_API_URL", "http://localhost:8080"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.HTTPTimeout, "SHERRY_HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.StatePath, "SHERRY_STATE_PATH", defaultStatePath()); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.CommentPageLimit, "SHERRY_PAGE_LIMIT", 20); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.HeaderHideDelay, "SHERRY_HEADER_HIDE_DELAY", 3*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvBool(&config.TrackingDisabled, "SHERRY_TRACKING_DISABLED", false); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sherry-state.db"
	}
	return filepath.Join(home, ".sherry", "state.db")
}

// Helper functions for type conversion and validation

func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %q", key, value)
	}
	*target = parsed
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %q", key, value)
	}
	*target = parsed
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	*target = parsed
	return nil
}

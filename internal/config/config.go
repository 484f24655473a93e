package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Auth gate modes
const (
	AuthModeLength = "length"
	AuthModeJWT    = "jwt"
)

// Receipt filter modes
const (
	FilterRequired = "required"
	FilterOptional = "optional"
	FilterOff      = "off"
)

// OpsPortOff as OPS_PORT disables the health/metrics listener
const OpsPortOff = "off"

// Config holds the application configuration
type Config struct {
	Port    string
	OpsPort string

	// DatabaseURL selects the PostgreSQL store; empty keeps everything in memory.
	DatabaseURL string
	SeedFile    string

	AuthMode        string
	AuthTokenLength int
	AuthJWTSecret   string

	CodeTTL        time.Duration
	OTPDevMode     bool
	ReceiptsFilter string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		OpsPort:        strings.ToLower(getEnv("OPS_PORT", "9090")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SeedFile:       strings.TrimSpace(os.Getenv("SEED_FILE")),
		AuthMode:       strings.ToLower(getEnv("AUTH_MODE", AuthModeLength)),
		AuthJWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
		ReceiptsFilter: strings.ToLower(getEnv("RECEIPTS_FILTER", FilterOptional)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.AuthTokenLength, err = getInt("AUTH_TOKEN_LENGTH", 128); err != nil {
		return nil, err
	}
	if cfg.CodeTTL, err = getDuration("CODE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPDevMode, err = getBool("OTP_DEV_MODE", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	switch c.AuthMode {
	case AuthModeLength:
		if c.AuthTokenLength <= 0 {
			return fmt.Errorf("AUTH_TOKEN_LENGTH must be positive, got %d", c.AuthTokenLength)
		}
	case AuthModeJWT:
		if c.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET environment variable is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q (want %q or %q)", c.AuthMode, AuthModeLength, AuthModeJWT)
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("CODE_TTL must be positive, got %s", c.CodeTTL)
	}
	switch c.ReceiptsFilter {
	case FilterRequired, FilterOptional, FilterOff:
	default:
		return fmt.Errorf("unknown RECEIPTS_FILTER %q", c.ReceiptsFilter)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

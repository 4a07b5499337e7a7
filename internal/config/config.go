package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int
	StoragePath       string

	// Booking engine policy.
	SlotDuration        time.Duration // Width of one bookable slot.
	OperatingHoursStart string        // "HH:MM", start of the bookable window each day.
	OperatingHoursEnd   string        // "HH:MM", end of the bookable window each day.
	CheckInGrace        time.Duration // How early before start check-in is allowed.
	SuggestionHorizon   time.Duration // How far from a conflicting request to scan for free windows.
	SuggestionLimit     int           // Max alternative windows returned per conflict.
	CompletionSweepSpec string        // Cron spec for the overdue-booking completion sweep.
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", "15m")
	if err != nil {
		return nil, err
	}

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Local file storage root for resource photos (default: ./data)
	cfg.StoragePath = getEnv("STORAGE_PATH", "./data")

	// Slot duration in minutes. Every booking must be a positive multiple of this.
	slotMinutes, err := getEnvAsInt("SLOT_DURATION_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_DURATION_MINUTES: %w", err)
	}
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("SLOT_DURATION_MINUTES must be positive")
	}
	cfg.SlotDuration = time.Duration(slotMinutes) * time.Minute

	// Daily operating window for the slot grid, "HH:MM".
	cfg.OperatingHoursStart = getEnv("OPERATING_HOURS_START", "09:00")
	cfg.OperatingHoursEnd = getEnv("OPERATING_HOURS_END", "18:00")

	// Check-in is allowed from (start - grace) until end.
	cfg.CheckInGrace, err = getEnvAsDuration("CHECKIN_GRACE", "15m")
	if err != nil {
		return nil, err
	}

	// Conflict suggestions scan up to this far from the requested window.
	cfg.SuggestionHorizon, err = getEnvAsDuration("SUGGESTION_HORIZON", "4h")
	if err != nil {
		return nil, err
	}

	cfg.SuggestionLimit, err = getEnvAsInt("SUGGESTION_LIMIT", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid SUGGESTION_LIMIT: %w", err)
	}

	// Cron spec for marking overdue bookings completed (default: every 10 minutes)
	cfg.CompletionSweepSpec = getEnv("COMPLETION_SWEEP_CRON", "*/10 * * * *")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration.
func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	valStr := getEnv(key, defaultValue)

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}

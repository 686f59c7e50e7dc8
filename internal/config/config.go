package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	MongoDB   MongoDBConfig
	Twilio    TwilioConfig
	Auth      AuthConfig
	Sheets    SheetsConfig
	Scheduler SchedulerConfig
	Outflow   OutflowConfig
	Listing   ListingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// TwilioConfig contains credentials and options for the Twilio SMS API.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	BaseURL     string
	CountryCode string
}

// AuthConfig describes how bearer tokens from the user directory are verified.
type AuthConfig struct {
	JWTSecret string
	LoginURL  string
}

// SheetsConfig contains configuration required to export the ledger to Google Sheets.
// Both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the ledger export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// SchedulerConfig holds cron schedules for background jobs.
type SchedulerConfig struct {
	LedgerExportCron     string
	WorkflowRecoveryCron string
	WorkflowStaleAfter   time.Duration
	Timezone             string
}

// OutflowConfig holds outflow workflow policy switches.
type OutflowConfig struct {
	AllowBackdated bool
}

// ListingConfig holds listing session options.
type ListingConfig struct {
	SessionTTL time.Duration
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	staleAfter, err := getDurationWithDefault("WORKFLOW_STALE_AFTER", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getDurationWithDefault("LISTING_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	allowBackdated, err := getBoolWithDefault("OUTFLOW_ALLOW_BACKDATED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "warehouse"),
		},
		Twilio: TwilioConfig{
			AccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
			PhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
			BaseURL:     getenvWithDefault("TWILIO_BASE_URL", "https://api.twilio.com"),
			CountryCode: getenvWithDefault("SMS_COUNTRY_CODE", "+91"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			LoginURL:  getenvWithDefault("AUTH_LOGIN_URL", "/sign-in"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Scheduler: SchedulerConfig{
			LedgerExportCron:     getenvWithDefault("LEDGER_EXPORT_CRON", "0 1 * * *"),
			WorkflowRecoveryCron: getenvWithDefault("WORKFLOW_RECOVERY_CRON", "*/5 * * * *"),
			WorkflowStaleAfter:   staleAfter,
			Timezone:             getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		Outflow: OutflowConfig{
			AllowBackdated: allowBackdated,
		},
		Listing: ListingConfig{
			SessionTTL: sessionTTL,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	switch {
	case c.Twilio.AccountSID == "":
		return errors.New("TWILIO_ACCOUNT_SID must be provided")
	case c.Twilio.AuthToken == "":
		return errors.New("TWILIO_AUTH_TOKEN must be provided")
	case c.Twilio.PhoneNumber == "":
		return errors.New("TWILIO_PHONE_NUMBER must be provided")
	}

	if c.Twilio.BaseURL == "" {
		return errors.New("TWILIO_BASE_URL must not be empty")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Scheduler.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}

	if c.Scheduler.WorkflowStaleAfter <= 0 {
		return errors.New("WORKFLOW_STALE_AFTER must be positive")
	}
	if c.Listing.SessionTTL <= 0 {
		return errors.New("LISTING_SESSION_TTL must be positive")
	}

	return nil
}

// Location resolves the configured business timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBoolWithDefault(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

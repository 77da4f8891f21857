package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Backend identifies which datastore implementation the server runs against.
type Backend string

const (
	BackendPostgrest Backend = "postgrest"
	BackendMongoDB   Backend = "mongodb"
	BackendMemory    Backend = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Datastore DatastoreConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// DatastoreConfig selects and parameterizes the row-store backend.
type DatastoreConfig struct {
	Backend Backend

	// PostgREST-style hosted datastore.
	URL    string
	APIKey string

	// MongoDB.
	MongoURI    string
	MongoDBName string
}

// SheetsConfig contains configuration required to export summary reports to
// Google Sheets. Optional: when CredentialsPath is empty the export scheduler
// is disabled.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
	// FarmIDs lists the farms included in the daily summary export.
	FarmIDs []string
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Datastore: DatastoreConfig{
			Backend:     Backend(getenvWithDefault("DATASTORE_BACKEND", string(BackendPostgrest))),
			URL:         os.Getenv("DATASTORE_URL"),
			APIKey:      os.Getenv("DATASTORE_API_KEY"),
			MongoURI:    os.Getenv("MONGODB_URI"),
			MongoDBName: getenvWithDefault("MONGODB_DB_NAME", "herdbook"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("SUMMARY_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
			FarmIDs:      splitList(os.Getenv("SUMMARY_FARM_IDS")),
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

	switch c.Datastore.Backend {
	case BackendPostgrest:
		if c.Datastore.URL == "" {
			return errors.New("DATASTORE_URL must be provided for the postgrest backend")
		}
		if c.Datastore.APIKey == "" {
			return errors.New("DATASTORE_API_KEY must be provided for the postgrest backend")
		}
	case BackendMongoDB:
		if c.Datastore.MongoURI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
		if c.Datastore.MongoDBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	case BackendMemory:
		// No parameters; intended for local runs and tests.
	default:
		return fmt.Errorf("unknown DATASTORE_BACKEND %q", c.Datastore.Backend)
	}

	// A credentials path without a sheet id (or the reverse) is a
	// misconfiguration worth failing fast on.
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.SheetsEnabled() {
		if c.Reporting.CronSchedule == "" {
			return errors.New("SUMMARY_CRON_SCHEDULE must be provided")
		}
		if c.Reporting.Timezone == "" {
			return errors.New("TIMEZONE must be provided")
		}
	}

	return nil
}

// SheetsEnabled reports whether the summary export path is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

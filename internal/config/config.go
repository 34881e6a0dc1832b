package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"igvtools/internal/logger"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// Store Configuration
	StoreBackend string
	DataDir      string
	DatabaseDSN  string
	SeedData     bool

	// Input and Output Directories
	CasesDir  string
	OutputDir string

	// Google Cloud Configuration (Document AI invoice prefill)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		StoreBackend:          strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataDir:               getEnv("DATA_DIR", "data"),
		DatabaseDSN:           getEnv("DATABASE_DSN", ""),
		SeedData:              getEnvBool("SEED_DATA", false),
		CasesDir:              getEnv("CASES_DIR", "data/flar"),
		OutputDir:             getEnv("OUTPUT_DIR", "output"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Devengados_IGV"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file store")
		}
	case BackendSQLite:
		if c.DatabaseDSN == "" && c.DataDir == "" {
			return fmt.Errorf("DATABASE_DSN or DATA_DIR is required for the sqlite store")
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of file, sqlite, postgres (got %q)", c.StoreBackend)
	}
	return nil
}

// ValidateDocumentAI checks the settings needed to extract provider invoices.
func (c *Config) ValidateDocumentAI() error {
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.DocumentAIProcessorID == "" {
		return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
	}
	return nil
}

// ValidateSheets checks the settings needed to export to Google Sheets.
func (c *Config) ValidateSheets() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

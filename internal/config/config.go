package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Storage
	Backend    string
	SQLitePath string
	SlotKey    string

	// Export
	ExportDir string

	// Logging
	LogLevel string

	// Derived-view cache
	ViewCacheSize int
	ViewCacheTTL  time.Duration

	// Google Sheets push (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string
	SheetsPushAttempts  int
}

func Load() *Config {
	cfg := &Config{
		Backend:    getEnv("LEDGER_BACKEND", "sqlite"),
		SQLitePath: getEnv("LEDGER_SQLITE_PATH", "./data/ledger.db"),
		SlotKey:    getEnv("LEDGER_SLOT_KEY", "finance_txns"),

		ExportDir: getEnv("LEDGER_EXPORT_DIR", "."),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		ViewCacheSize: getEnvInt("VIEW_CACHE_SIZE", 64),
		ViewCacheTTL:  getEnvDuration("VIEW_CACHE_TTL", 5*time.Minute),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		SheetsPushAttempts:  getEnvInt("SHEETS_PUSH_ATTEMPTS", 3),
	}

	return cfg
}

// SheetsEnabled reports whether a spreadsheet target is configured.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.Backend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	if c.Backend == "sqlite" {
		if c.SQLitePath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLitePath); dir != "." && dir != "" {
			if info, err := os.Stat(dir); err == nil && !info.IsDir() {
				errors = append(errors, fmt.Sprintf("SQLite database directory '%s' is not a directory", dir))
			}
		}
	}

	if strings.TrimSpace(c.SlotKey) == "" {
		errors = append(errors, "slot key cannot be empty")
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be DEBUG, INFO, WARN or ERROR", c.LogLevel))
	}

	if c.ViewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	} else if c.ViewCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at most 10000", c.ViewCacheSize))
	}
	if c.ViewCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid view cache ttl %v: must not be negative", c.ViewCacheTTL))
	}

	if c.SheetsEnabled() {
		if strings.TrimSpace(c.GoogleSheetName) == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.SheetsPushAttempts < 1 || c.SheetsPushAttempts > 10 {
			errors = append(errors, fmt.Sprintf("invalid sheets push attempts %d: must be between 1 and 10", c.SheetsPushAttempts))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

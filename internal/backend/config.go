package backend

import (
	"fmt"

	"ledger/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.Backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Backend)
	}

	return Config{
		Type:       backendType,
		SlotKey:    appConfig.SlotKey,
		SQLitePath: appConfig.SQLitePath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SlotKey == "" {
		return fmt.Errorf("slot key is required")
	}
	if c.Type == SQLiteBackend && c.SQLitePath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

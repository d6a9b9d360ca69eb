package backend

import (
	"fmt"

	"uems/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		APIBaseURL: appConfig.APIBaseURL,
		APITimeout: appConfig.APITimeout,

		DataDirectory: appConfig.DataDirectory,

		SQLiteDBPath:     appConfig.SQLiteDBPath,
		SnapshotsEnabled: appConfig.SnapshotsEnabled,
		SnapshotFallback: appConfig.SnapshotFallback,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case APIBackend:
		if c.APIBaseURL == "" {
			return fmt.Errorf("API base URL is required for api backend")
		}
	case SnapshotBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for snapshot backend")
		}
	case MemoryBackend:
		// DataDirectory may be empty: the store then serves only Put bodies.
	}

	if c.usesStore() && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required when snapshots are recorded or used as fallback")
	}
	return nil
}

// usesStore reports whether the sqlite snapshot store must be opened.
func (c Config) usesStore() bool {
	return c.Type == SnapshotBackend || c.SnapshotsEnabled || c.SnapshotFallback
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{APIBackend, MemoryBackend, SnapshotBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

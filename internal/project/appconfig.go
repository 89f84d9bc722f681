package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/FilmBoM/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.filmbom/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".filmbom")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Settings missing from the file keep their default value.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	// Ensure RecentExports is never nil
	if config.RecentExports == nil {
		config.RecentExports = []string{}
	}
	return config, nil
}

// ResolveDSN places a relative SQLite database file in the config directory
// dir. Other drivers and absolute or in-memory DSNs are returned unchanged.
func ResolveDSN(config model.AppConfig, dir string) string {
	dsn := config.DatabaseDSN
	if config.DatabaseDriver != "sqlite" || dsn == "" || filepath.IsAbs(dsn) {
		return dsn
	}
	if dsn == ":memory:" || len(dsn) >= 5 && dsn[:5] == "file:" {
		return dsn
	}
	return filepath.Join(dir, dsn)
}

package config

import (
	"os"
	"path/filepath"
)

const (
	appNameVar         = "APP_NAME"
	apiBaseURLVar      = "API_BASE_URL"
	credentialsFileVar = "CREDENTIALS_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "TourVista")
}

// GetAPIBaseURL returns the base URL of the marketplace API
// (e.g., "https://api.tourvista.example").
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080")
}

// GetCredentialsFile returns the path of the shared credentials file.
// Defaults to the platform config directory.
func (EnvVars) GetCredentialsFile() string {
	if path := os.Getenv(credentialsFileVar); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tourvista", "credentials.json")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

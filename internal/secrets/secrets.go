package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetSecret retrieves a secret value, supporting both direct env vars and file-based secrets
// File-based format: BRAVE_API_KEY_FILE=/run/secrets/brave_api_key
// Env var format: BRAVE_API_KEY
func GetSecret(envKey string, defaultValue string) (string, error) {
	// Docker secrets pattern takes precedence over the plain variable
	filePathKey := envKey + "_FILE"
	if filePath := os.Getenv(filePathKey); filePath != "" {
		data, err := ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return data, nil
	}

	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}

	return defaultValue, nil
}

// GetOptionalSecret retrieves a secret with a default value, never fails
func GetOptionalSecret(envKey string, defaultValue string) string {
	value, err := GetSecret(envKey, defaultValue)
	if err != nil {
		return defaultValue
	}
	return value
}

// ReadFile reads a secret file and returns its trimmed contents.
// A leading "~/" is expanded to the current user's home directory.
func ReadFile(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("read secret file %s: %w", expanded, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

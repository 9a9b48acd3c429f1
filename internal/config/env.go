package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

func LoadEnvFile(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpsertEnvVar sets key in the .env file at path, creating it when missing.
// Other entries are kept; comments are not preserved.
func UpsertEnvVar(path, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("env key is empty")
	}
	m := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read .env failed: %w", err)
		}
		m = existing
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read .env failed: %w", err)
	}
	m[key] = strings.TrimSpace(value)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create .env dir failed: %w", err)
	}
	if err := godotenv.Write(m, path); err != nil {
		return fmt.Errorf("write .env failed: %w", err)
	}
	return nil
}

// lookupEnv prefers the process environment over values read from .env.
func lookupEnv(fileEnv map[string]string, key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if v, ok := fileEnv[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}

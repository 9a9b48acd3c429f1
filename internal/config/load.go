package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var embeddedDefaultConfig []byte

// Load reads the config file and the .env next to it, then applies
// environment overrides. An explicit pathArg must exist; the default
// ./rtfcheck.yaml is optional.
func Load(pathArg, cwd string) (*Config, *Paths, error) {
	paths := resolvePaths(pathArg, cwd)
	cfg := &Config{}

	raw, err := os.ReadFile(paths.ConfigPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, nil, fmt.Errorf("config format error (%s): %w", paths.ConfigPath, err)
		}
		paths.ConfigSource = paths.ConfigPath
	case errors.Is(err, fs.ErrNotExist) && strings.TrimSpace(pathArg) == "":
		paths.ConfigSource = "defaults"
	default:
		return nil, nil, fmt.Errorf("read config failed (%s): %w", paths.ConfigPath, err)
	}

	fileEnv := map[string]string{}
	if m, err := LoadEnvFile(paths.EnvPath); err == nil {
		fileEnv = m
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("read .env failed (%s): %w", paths.EnvPath, err)
	}
	applyEnv(cfg, fileEnv)
	cfg.applyDefaults()

	base := filepath.Dir(paths.ConfigPath)
	cfg.Dir = expandPath(cfg.Dir, base)
	cfg.LogFile = expandPath(cfg.LogFile, base)
	return cfg, paths, nil
}

// WriteDefault writes the built-in config template to path unless a file is
// already there.
func WriteDefault(path string) (bool, error) {
	if st, err := os.Stat(path); err == nil {
		if st.IsDir() {
			return false, fmt.Errorf("config path is a directory (%s)", path)
		}
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config dir failed: %w", err)
	}
	if err := os.WriteFile(path, embeddedDefaultConfig, 0o644); err != nil {
		return false, fmt.Errorf("write default config failed (%s): %w", path, err)
	}
	return true, nil
}

func DefaultPath(cwd string) string {
	return filepath.Join(cwd, DefaultFileName)
}

func resolvePaths(configArg, cwd string) *Paths {
	configPath := DefaultPath(cwd)
	if strings.TrimSpace(configArg) != "" {
		configPath = expandPath(configArg, cwd)
	}
	return &Paths{
		ConfigPath: configPath,
		EnvPath:    filepath.Join(filepath.Dir(configPath), ".env"),
	}
}

func applyEnv(cfg *Config, fileEnv map[string]string) {
	if v, ok := lookupEnv(fileEnv, EnvDir); ok {
		cfg.Dir = v
	}
	if v, ok := lookupEnv(fileEnv, EnvLogFile); ok {
		cfg.LogFile = v
	}
	if v, ok := lookupEnv(fileEnv, EnvExtractor); ok {
		cfg.Extractor.Command = strings.Fields(v)
	}
}

func expandPath(v, base string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if strings.HasPrefix(v, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, v[2:])
		}
	}
	if filepath.IsAbs(v) {
		return v
	}
	if strings.TrimSpace(base) != "" {
		return filepath.Join(base, v)
	}
	return v
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Load reads the configuration from the default path, falling back to
// defaults when the file does not exist. Environment overrides are applied.
func Load() (*Config, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadOrDefault(path)
}

// LoadOrDefault reads path like LoadFrom but returns defaults when the file
// is missing. Environment overrides are applied.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if err != nil {
		var notFound *ConfigNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		cfg = NewConfig()
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// LoadFrom decodes the config at path on top of NewConfig, so fields the
// file omits keep their defaults. Environment overrides are not applied.
func LoadFrom(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, &ConfigNotFoundError{
			Path: path,
			Hint: "'promptwatch prefs set <key> <value>' creates it",
		}
	case os.IsPermission(err):
		return nil, &PermissionError{
			Path:    path,
			Op:      "read",
			Fix:     chmodHint(path, "600"),
			Details: modeOf(path),
		}
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := NewConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("not valid JSON: %v", err),
			Hint:    "the previous version is kept as " + path + backupExt,
		}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PROMPTWATCH_* environment variables.
func ApplyEnv(cfg *Config) {
	if token := os.Getenv("PROMPTWATCH_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
		cfg.Telegram.Enabled = true
	}
	if raw := os.Getenv("PROMPTWATCH_TELEGRAM_CHAT_ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		} else {
			log.Printf("Warning: ignoring PROMPTWATCH_TELEGRAM_CHAT_ID=%q: %v", raw, err)
		}
	}
	if url := os.Getenv("PROMPTWATCH_DASHBOARD_URL"); url != "" {
		cfg.Dashboard.URL = url
		cfg.Dashboard.Enabled = true
	}
	if raw := os.Getenv("PROMPTWATCH_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= time.Second {
			cfg.Monitoring.IntervalSeconds = int(d / time.Second)
		} else if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Monitoring.IntervalSeconds = n
		} else {
			log.Printf("Warning: ignoring PROMPTWATCH_INTERVAL=%q", raw)
		}
	}
}

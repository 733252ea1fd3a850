package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromEnhancedErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		testPath := filepath.Join(t.TempDir(), "nonexistent.json")

		_, err := LoadFrom(testPath)
		var notFound *ConfigNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected ConfigNotFoundError, got %v", err)
		}
		if !strings.Contains(err.Error(), "promptwatch prefs set") {
			t.Errorf("error should mention prefs command, got: %v", err)
		}
	})

	t.Run("permission denied", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		testPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(testPath, []byte(`{}`), 0000); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		defer os.Chmod(testPath, 0600)

		_, err := LoadFrom(testPath)
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
		if !strings.Contains(err.Error(), "chmod 600") {
			t.Errorf("error should suggest chmod fix, got: %v", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		testPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(testPath, []byte(`{invalid json}`), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		_, err := LoadFrom(testPath)
		var invalidErr *InvalidConfigError
		if !errors.As(err, &invalidErr) {
			t.Fatalf("expected InvalidConfigError, got %v", err)
		}
		if !strings.Contains(err.Error(), ".bak") {
			t.Errorf("error should mention backup, got: %v", err)
		}
	})
}

func TestLoadFromPartialConfigKeepsDefaults(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "config.json")
	partial := `{
		"monitoring": {"intervalSeconds": 10},
		"notifications": {"learningTips": true, "frequency": "all"}
	}`
	if err := os.WriteFile(testPath, []byte(partial), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg, err := LoadFrom(testPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Monitoring.IntervalSeconds != 10 {
		t.Errorf("expected interval 10, got %d", cfg.Monitoring.IntervalSeconds)
	}
	if cfg.Monitoring.NotificationThrottleSeconds != DefaultNotificationThrottleSeconds {
		t.Errorf("missing field should keep default, got %d", cfg.Monitoring.NotificationThrottleSeconds)
	}
	if !cfg.Notifications.LearningTips || cfg.Notifications.Frequency != FrequencyAll {
		t.Errorf("expected overrides applied: %+v", cfg.Notifications)
	}
	if !cfg.Notifications.CriticalAlerts {
		t.Error("missing criticalAlerts should keep default true")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	t.Setenv("PROMPTWATCH_TELEGRAM_TOKEN", "")
	t.Setenv("PROMPTWATCH_TELEGRAM_CHAT_ID", "")
	t.Setenv("PROMPTWATCH_DASHBOARD_URL", "")
	t.Setenv("PROMPTWATCH_INTERVAL", "")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if *cfg != *NewConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PROMPTWATCH_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("PROMPTWATCH_TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("PROMPTWATCH_DASHBOARD_URL", "http://localhost:8080/events")
	t.Setenv("PROMPTWATCH_INTERVAL", "15s")

	cfg := NewConfig()
	ApplyEnv(cfg)

	if !cfg.Telegram.Enabled || cfg.Telegram.Token != "123:abc" || cfg.Telegram.ChatID != -100200 {
		t.Errorf("unexpected telegram config: %+v", cfg.Telegram)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.URL != "http://localhost:8080/events" {
		t.Errorf("unexpected dashboard config: %+v", cfg.Dashboard)
	}
	if cfg.Monitoring.IntervalSeconds != 15 {
		t.Errorf("expected interval 15, got %d", cfg.Monitoring.IntervalSeconds)
	}
}

func TestApplyEnvIntervalSeconds(t *testing.T) {
	t.Setenv("PROMPTWATCH_INTERVAL", "7")

	cfg := NewConfig()
	ApplyEnv(cfg)
	if cfg.Monitoring.IntervalSeconds != 7 {
		t.Errorf("expected interval 7, got %d", cfg.Monitoring.IntervalSeconds)
	}
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("PROMPTWATCH_INTERVAL", "soon")
	t.Setenv("PROMPTWATCH_TELEGRAM_CHAT_ID", "not-a-number")

	cfg := NewConfig()
	ApplyEnv(cfg)
	if cfg.Monitoring.IntervalSeconds != DefaultIntervalSeconds {
		t.Errorf("invalid interval should be ignored, got %d", cfg.Monitoring.IntervalSeconds)
	}
	if cfg.Telegram.ChatID != 0 {
		t.Errorf("invalid chat id should be ignored, got %d", cfg.Telegram.ChatID)
	}
}

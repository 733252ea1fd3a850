package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Monitoring.Interval() != 5*time.Second {
		t.Errorf("expected 5s interval, got %s", cfg.Monitoring.Interval())
	}
	if cfg.Monitoring.AnalysisThrottle() != 3*time.Second {
		t.Errorf("expected 3s analysis throttle, got %s", cfg.Monitoring.AnalysisThrottle())
	}
	if cfg.Monitoring.NotificationThrottle() != 30*time.Second {
		t.Errorf("expected 30s notification throttle, got %s", cfg.Monitoring.NotificationThrottle())
	}
	if cfg.Monitoring.Retention() != 30*24*time.Hour {
		t.Errorf("expected 30 day retention, got %s", cfg.Monitoring.Retention())
	}

	prefs := cfg.Notifications
	if !prefs.Enabled || !prefs.CriticalAlerts || !prefs.SecurityWarnings {
		t.Errorf("critical and security alerts should be on by default: %+v", prefs)
	}
	if prefs.PromptSuggestions || prefs.LearningTips {
		t.Errorf("tips should be opt-in: %+v", prefs)
	}
	if prefs.Frequency != FrequencyMinimal {
		t.Errorf("expected minimal frequency, got %q", prefs.Frequency)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFrequencyMultiplier(t *testing.T) {
	tests := []struct {
		freq Frequency
		want float64
	}{
		{FrequencyAll, 1.0},
		{FrequencyOccasional, 0.3},
		{FrequencyMinimal, 0.1},
		{"", 0.1},
		{"sometimes", 0.1},
	}

	for _, tt := range tests {
		if got := tt.freq.Multiplier(); got != tt.want {
			t.Errorf("%q.Multiplier() = %v, want %v", tt.freq, got, tt.want)
		}
	}
}

func TestHomeDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROMPTWATCH_HOME", dir)

	home, err := HomeDir()
	if err != nil {
		t.Fatalf("HomeDir failed: %v", err)
	}
	if home != dir {
		t.Errorf("expected %s, got %s", dir, home)
	}

	path, err := GetDefaultConfigPath()
	if err != nil {
		t.Fatalf("GetDefaultConfigPath failed: %v", err)
	}
	if path != filepath.Join(dir, "config.json") {
		t.Errorf("unexpected config path %s", path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero interval", func(c *Config) { c.Monitoring.IntervalSeconds = 0 }, "monitoring.intervalSeconds"},
		{"negative retention", func(c *Config) { c.Monitoring.RetentionDays = -1 }, "monitoring.retentionDays"},
		{"bad frequency", func(c *Config) { c.Notifications.Frequency = "hourly" }, "notifications.frequency"},
		{"bad position", func(c *Config) { c.Notifications.Position = "center" }, "notifications.position"},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = 1 }, "telegram.token"},
		{"telegram without chat", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.Token = "t" }, "telegram.chatId"},
		{"dashboard bad url", func(c *Config) { c.Dashboard.Enabled = true; c.Dashboard.URL = "ftp://x" }, "dashboard.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			ice, ok := err.(*InvalidConfigError)
			if !ok {
				t.Fatalf("expected InvalidConfigError, got %v", err)
			}
			if ice.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ice.Field)
			}
		})
	}
}

func TestValidateDashboardURL(t *testing.T) {
	cfg := NewConfig()
	cfg.Dashboard.Enabled = true
	cfg.Dashboard.URL = "https://dashboard.example.com/api/events"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid dashboard config, got %v", err)
	}
}

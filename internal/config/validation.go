package config

import (
	"fmt"
	"net/url"
)

// Positions accepted for on-screen notifications.
var validPositions = map[string]bool{
	"top-right":    true,
	"top-left":     true,
	"bottom-right": true,
	"bottom-left":  true,
}

// Validate checks ranges and cross-field requirements.
func Validate(cfg *Config) error {
	m := cfg.Monitoring
	switch {
	case m.IntervalSeconds < 1:
		return invalid("monitoring.intervalSeconds", "must be at least 1")
	case m.AnalysisThrottleSeconds < 0:
		return invalid("monitoring.analysisThrottleSeconds", "must not be negative")
	case m.NotificationThrottleSeconds < 0:
		return invalid("monitoring.notificationThrottleSeconds", "must not be negative")
	case m.RetentionDays < 0:
		return invalid("monitoring.retentionDays", "must not be negative")
	case m.CostPerInteraction < 0:
		return invalid("monitoring.costPerInteraction", "must not be negative")
	}

	n := cfg.Notifications
	switch n.Frequency {
	case FrequencyAll, FrequencyOccasional, FrequencyMinimal:
	default:
		return invalid("notifications.frequency", fmt.Sprintf("%q is not one of all, occasional, minimal", n.Frequency))
	}
	if !validPositions[n.Position] {
		return invalid("notifications.position", fmt.Sprintf("%q is not a screen corner", n.Position))
	}

	if cfg.Telegram.Enabled {
		if cfg.Telegram.Token == "" {
			return invalid("telegram.token", "required when telegram is enabled")
		}
		if cfg.Telegram.ChatID == 0 {
			return invalid("telegram.chatId", "required when telegram is enabled")
		}
	}

	if cfg.Dashboard.Enabled {
		u, err := url.Parse(cfg.Dashboard.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("dashboard.url", fmt.Sprintf("%q is not an http(s) URL", cfg.Dashboard.URL))
		}
		if cfg.Dashboard.BatchSize < 0 || cfg.Dashboard.FlushIntervalSeconds < 0 {
			return invalid("dashboard", "batch size and flush interval must not be negative")
		}
	}

	return nil
}

func invalid(field, msg string) error {
	return &InvalidConfigError{
		Field:   field,
		Message: msg,
		Hint:    "Fix the value with 'promptwatch prefs set'",
	}
}

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type setting struct {
	get func(*Config) string
	set func(*Config, string) error
}

func boolSetting(field func(*Config) *bool) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			*field(c) = b
			return nil
		},
	}
}

func intSetting(field func(*Config) *int) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expected an integer, got %q", v)
			}
			*field(c) = n
			return nil
		},
	}
}

func stringSetting(field func(*Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

// settings maps dotted keys to config fields for the prefs command.
var settings = map[string]setting{
	"notifications.enabled":           boolSetting(func(c *Config) *bool { return &c.Notifications.Enabled }),
	"notifications.criticalAlerts":    boolSetting(func(c *Config) *bool { return &c.Notifications.CriticalAlerts }),
	"notifications.securityWarnings":  boolSetting(func(c *Config) *bool { return &c.Notifications.SecurityWarnings }),
	"notifications.promptSuggestions": boolSetting(func(c *Config) *bool { return &c.Notifications.PromptSuggestions }),
	"notifications.learningTips":      boolSetting(func(c *Config) *bool { return &c.Notifications.LearningTips }),
	"notifications.frequency": {
		get: func(c *Config) string { return string(c.Notifications.Frequency) },
		set: func(c *Config, v string) error {
			c.Notifications.Frequency = Frequency(strings.ToLower(v))
			return nil
		},
	},
	"notifications.position":                 stringSetting(func(c *Config) *string { return &c.Notifications.Position }),
	"monitoring.intervalSeconds":             intSetting(func(c *Config) *int { return &c.Monitoring.IntervalSeconds }),
	"monitoring.analysisThrottleSeconds":     intSetting(func(c *Config) *int { return &c.Monitoring.AnalysisThrottleSeconds }),
	"monitoring.notificationThrottleSeconds": intSetting(func(c *Config) *int { return &c.Monitoring.NotificationThrottleSeconds }),
	"monitoring.retentionDays":               intSetting(func(c *Config) *int { return &c.Monitoring.RetentionDays }),
	"monitoring.costPerInteraction": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Monitoring.CostPerInteraction, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("expected a number, got %q", v)
			}
			c.Monitoring.CostPerInteraction = f
			return nil
		},
	},
	"sinks.console":     boolSetting(func(c *Config) *bool { return &c.Sinks.Console }),
	"sinks.desktop":     boolSetting(func(c *Config) *bool { return &c.Sinks.Desktop }),
	"telegram.enabled":  boolSetting(func(c *Config) *bool { return &c.Telegram.Enabled }),
	"telegram.token":    stringSetting(func(c *Config) *string { return &c.Telegram.Token }),
	"dashboard.enabled": boolSetting(func(c *Config) *bool { return &c.Dashboard.Enabled }),
	"dashboard.url":     stringSetting(func(c *Config) *string { return &c.Dashboard.URL }),
	"ocr.language":      stringSetting(func(c *Config) *string { return &c.OCR.Language }),
	"ocr.binary":        stringSetting(func(c *Config) *string { return &c.OCR.Binary }),
	"telegram.chatId": {
		get: func(c *Config) string { return strconv.FormatInt(c.Telegram.ChatID, 10) },
		set: func(c *Config, v string) error {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("expected a chat id, got %q", v)
			}
			c.Telegram.ChatID = id
			return nil
		},
	},
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a setting.
func Get(cfg *Config, key string) (string, error) {
	s, ok := settings[key]
	if !ok {
		return "", &UnknownKeyError{Key: key}
	}
	return s.get(cfg), nil
}

// Set parses value into the setting named key. The result is not validated.
func Set(cfg *Config, key, value string) error {
	s, ok := settings[key]
	if !ok {
		return &UnknownKeyError{Key: key}
	}
	if err := s.set(cfg, strings.TrimSpace(value)); err != nil {
		return &InvalidConfigError{Field: key, Message: err.Error()}
	}
	return nil
}

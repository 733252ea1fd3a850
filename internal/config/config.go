/*
Package config handles loading, saving and validating promptwatch configuration.

Configuration is stored in ~/.promptwatch/config.json (the directory can be
moved with PROMPTWATCH_HOME). A missing file means defaults; fields absent
from the file keep their default values.

Schema:

	{
	  "monitoring": {
	    "intervalSeconds": 5,
	    "analysisThrottleSeconds": 3,
	    "notificationThrottleSeconds": 30,
	    "retentionDays": 30,
	    "costPerInteraction": 0
	  },
	  "notifications": {
	    "enabled": true,
	    "criticalAlerts": true,
	    "securityWarnings": true,
	    "promptSuggestions": false,
	    "learningTips": false,
	    "frequency": "minimal",
	    "position": "top-right"
	  },
	  "sinks": {"console": true, "desktop": true},
	  "telegram": {"enabled": false, "token": "", "chatId": 0},
	  "dashboard": {"enabled": false, "url": "", "batchSize": 20, "flushIntervalSeconds": 10},
	  "ocr": {"binary": "tesseract", "language": "eng"}
	}
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Frequency controls how often optional tips are shown.
type Frequency string

const (
	FrequencyAll        Frequency = "all"
	FrequencyOccasional Frequency = "occasional"
	FrequencyMinimal    Frequency = "minimal"
)

// Multiplier returns the chance scale for optional tips. Unknown values are
// treated as minimal.
func (f Frequency) Multiplier() float64 {
	switch f {
	case FrequencyAll:
		return 1.0
	case FrequencyOccasional:
		return 0.3
	default:
		return 0.1
	}
}

// Config represents the root configuration structure.
type Config struct {
	Monitoring    Monitoring              `json:"monitoring"`
	Notifications NotificationPreferences `json:"notifications"`
	Sinks         Sinks                   `json:"sinks"`
	Telegram      TelegramConfig          `json:"telegram"`
	Dashboard     DashboardConfig         `json:"dashboard"`
	OCR           OCRConfig               `json:"ocr"`
}

// Monitoring holds capture and analysis timing.
type Monitoring struct {
	// IntervalSeconds is the capture period.
	IntervalSeconds int `json:"intervalSeconds"`

	// AnalysisThrottleSeconds is the minimum gap between analyzed samples.
	AnalysisThrottleSeconds int `json:"analysisThrottleSeconds"`

	// NotificationThrottleSeconds is the minimum gap between shown notifications.
	NotificationThrottleSeconds int `json:"notificationThrottleSeconds"`

	// RetentionDays bounds how long usage and alert rows are kept. Zero keeps
	// everything.
	RetentionDays int `json:"retentionDays"`

	// CostPerInteraction is added to a session's total cost for every usage event.
	CostPerInteraction float64 `json:"costPerInteraction"`
}

// Interval returns the capture period.
func (m Monitoring) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// AnalysisThrottle returns the minimum gap between analyses.
func (m Monitoring) AnalysisThrottle() time.Duration {
	return time.Duration(m.AnalysisThrottleSeconds) * time.Second
}

// NotificationThrottle returns the minimum gap between notifications.
func (m Monitoring) NotificationThrottle() time.Duration {
	return time.Duration(m.NotificationThrottleSeconds) * time.Second
}

// Retention returns the retention window, or zero for unlimited.
func (m Monitoring) Retention() time.Duration {
	return time.Duration(m.RetentionDays) * 24 * time.Hour
}

// NotificationPreferences decide which notifications may be shown.
type NotificationPreferences struct {
	Enabled           bool      `json:"enabled"`
	CriticalAlerts    bool      `json:"criticalAlerts"`
	SecurityWarnings  bool      `json:"securityWarnings"`
	PromptSuggestions bool      `json:"promptSuggestions"`
	LearningTips      bool      `json:"learningTips"`
	Frequency         Frequency `json:"frequency"`
	Position          string    `json:"position"`
}

// Sinks selects the local notification outputs.
type Sinks struct {
	Console bool `json:"console"`
	Desktop bool `json:"desktop"`
}

// TelegramConfig configures the Telegram notification sink.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chatId,omitempty"`
	Proxy   string `json:"proxy,omitempty"`
}

// DashboardConfig configures forwarding of derived results to a dashboard.
type DashboardConfig struct {
	Enabled              bool   `json:"enabled"`
	URL                  string `json:"url,omitempty"`
	BatchSize            int    `json:"batchSize,omitempty"`
	FlushIntervalSeconds int    `json:"flushIntervalSeconds,omitempty"`
}

// OCRConfig configures text recognition.
type OCRConfig struct {
	Binary   string `json:"binary,omitempty"`
	Language string `json:"language,omitempty"`
}

// Default values.
const (
	DefaultIntervalSeconds             = 5
	DefaultAnalysisThrottleSeconds     = 3
	DefaultNotificationThrottleSeconds = 30
	DefaultRetentionDays               = 30
	DefaultPosition                    = "top-right"
	DefaultDashboardBatchSize          = 20
	DefaultDashboardFlushSeconds       = 10
)

// NewConfig returns a configuration with every default filled in.
func NewConfig() *Config {
	return &Config{
		Monitoring: Monitoring{
			IntervalSeconds:             DefaultIntervalSeconds,
			AnalysisThrottleSeconds:     DefaultAnalysisThrottleSeconds,
			NotificationThrottleSeconds: DefaultNotificationThrottleSeconds,
			RetentionDays:               DefaultRetentionDays,
		},
		Notifications: DefaultPreferences(),
		Sinks: Sinks{
			Console: true,
			Desktop: true,
		},
		Dashboard: DashboardConfig{
			BatchSize:            DefaultDashboardBatchSize,
			FlushIntervalSeconds: DefaultDashboardFlushSeconds,
		},
		OCR: OCRConfig{
			Binary:   "tesseract",
			Language: "eng",
		},
	}
}

// DefaultPreferences shows only critical and security alerts.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		Enabled:          true,
		CriticalAlerts:   true,
		SecurityWarnings: true,
		Frequency:        FrequencyMinimal,
		Position:         DefaultPosition,
	}
}

// HomeDir returns the promptwatch state directory.
func HomeDir() (string, error) {
	if dir := os.Getenv("PROMPTWATCH_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".promptwatch"), nil
}

// GetDefaultConfigPath returns the path to config.json in HomeDir.
func GetDefaultConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

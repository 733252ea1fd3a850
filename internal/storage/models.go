package storage

import (
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
)

// UsageEvent records one analyzed interaction with an AI tool. It holds
// derived fields only; the captured text itself is never stored.
type UsageEvent struct {
	ID                    int64             `json:"id" yaml:"id"`
	Timestamp             time.Time         `json:"timestamp" yaml:"timestamp"`
	Tool                  string            `json:"tool" yaml:"tool"`
	RiskLevel             model.RiskLevel   `json:"riskLevel" yaml:"riskLevel"`
	ContentType           model.ContentType `json:"contentType" yaml:"contentType"`
	SensitiveDataDetected bool              `json:"sensitiveDataDetected" yaml:"sensitiveDataDetected"`
	APIKeyExposed         bool              `json:"apiKeyExposed" yaml:"apiKeyExposed"`
	ComplianceFlags       []string          `json:"complianceFlags" yaml:"complianceFlags"`
	ContentHash           string            `json:"contentHash" yaml:"contentHash"`
	SessionID             string            `json:"sessionId" yaml:"sessionId"`
}

// SecurityAlert is raised for high and critical risk captures.
// SanitizedContent has already been passed through the redactor.
type SecurityAlert struct {
	ID               int64           `json:"id" yaml:"id"`
	Timestamp        time.Time       `json:"timestamp" yaml:"timestamp"`
	AlertType        string          `json:"alertType" yaml:"alertType"`
	Severity         model.RiskLevel `json:"severity" yaml:"severity"`
	Tool             string          `json:"tool" yaml:"tool"`
	SanitizedContent string          `json:"sanitizedContent" yaml:"sanitizedContent"`
	Resolved         bool            `json:"resolved" yaml:"resolved"`
	ResolvedAt       *time.Time      `json:"resolvedAt,omitempty" yaml:"resolvedAt,omitempty"`
	SessionID        string          `json:"sessionId" yaml:"sessionId"`
}

// MonitoringSession spans one Start to Stop of the monitor.
type MonitoringSession struct {
	ID         string     `json:"id" yaml:"id"`
	StartTime  time.Time  `json:"startTime" yaml:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	TotalUsage int        `json:"totalUsage" yaml:"totalUsage"`
	TotalCost  float64    `json:"totalCost" yaml:"totalCost"`
}

// Open reports whether the session has not been closed.
func (m MonitoringSession) Open() bool {
	return m.EndTime == nil
}

// AlertFilter narrows ListAlerts. Zero values match everything.
type AlertFilter struct {
	Since          time.Time
	Severity       model.RiskLevel
	UnresolvedOnly bool
	Limit          int
}

// CleanupResult counts rows removed by Cleanup.
type CleanupResult struct {
	UsageEvents int64 `json:"usageEvents"`
	Alerts      int64 `json:"alerts"`
	Sessions    int64 `json:"sessions"`
}

// Total returns the number of rows removed.
func (c CleanupResult) Total() int64 {
	return c.UsageEvents + c.Alerts + c.Sessions
}

/*
Package search provides full-text search over sanitized security alerts.

Alerts are indexed with Bleve; the SQLite store stays the source of truth
and the index can be rebuilt from it at any time with Sync.
*/
package search

import (
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
)

// AlertHit is a single search result with its relevance score.
type AlertHit struct {
	ID        int64           `json:"id"`
	AlertType string          `json:"alertType"`
	Severity  model.RiskLevel `json:"severity"`
	Tool      string          `json:"tool"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Resolved  bool            `json:"resolved"`
	Score     float64         `json:"score"`
}

// Query describes an alert search. An empty Text matches every alert.
type Query struct {
	Text     string
	Severity model.RiskLevel
	Tool     string
	Limit    int
}

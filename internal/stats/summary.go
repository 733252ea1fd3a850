package stats

import (
	"sort"
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
	"github.com/khanglvm/promptwatch/internal/storage"
)

// ToolSummary aggregates one tool's usage.
type ToolSummary struct {
	Tool          string    `json:"tool"`
	Interactions  int       `json:"interactions"`
	Sensitive     int       `json:"sensitive"`
	APIKeyExposed int       `json:"apiKeyExposed"`
	LastUsed      time.Time `json:"lastUsed"`
	Score         float64   `json:"score"`
}

// Summary aggregates usage over a period.
type Summary struct {
	Since           time.Time               `json:"since"`
	Interactions    int                     `json:"interactions"`
	EstimatedCost   float64                 `json:"estimatedCost"`
	RiskLevels      map[model.RiskLevel]int `json:"riskLevels"`
	ComplianceFlags map[string]int          `json:"complianceFlags"`
	Tools           []ToolSummary           `json:"tools"`
}

// Summarize builds a Summary from history. Tools are ordered by rank.
func Summarize(history []storage.UsageEvent, since, now time.Time, costPerInteraction float64) Summary {
	s := Summary{
		Since:           since,
		RiskLevels:      make(map[model.RiskLevel]int),
		ComplianceFlags: make(map[string]int),
		Tools:           []ToolSummary{},
	}

	byTool := make(map[string]*ToolSummary)
	for _, event := range history {
		if event.Timestamp.Before(since) {
			continue
		}
		s.Interactions++
		s.RiskLevels[event.RiskLevel]++
		for _, flag := range event.ComplianceFlags {
			s.ComplianceFlags[flag]++
		}

		ts, ok := byTool[event.Tool]
		if !ok {
			ts = &ToolSummary{Tool: event.Tool}
			byTool[event.Tool] = ts
		}
		ts.Interactions++
		if event.SensitiveDataDetected {
			ts.Sensitive++
		}
		if event.APIKeyExposed {
			ts.APIKeyExposed++
		}
		if event.Timestamp.After(ts.LastUsed) {
			ts.LastUsed = event.Timestamp
		}
	}
	s.EstimatedCost = float64(s.Interactions) * costPerInteraction

	for _, ranked := range RankTools(history, now) {
		if ts, ok := byTool[ranked.Tool]; ok {
			ts.Score = ranked.Score
			s.Tools = append(s.Tools, *ts)
			delete(byTool, ranked.Tool)
		}
	}
	// Events without a tool are never ranked; keep them last.
	rest := make([]string, 0, len(byTool))
	for tool := range byTool {
		rest = append(rest, tool)
	}
	sort.Strings(rest)
	for _, tool := range rest {
		s.Tools = append(s.Tools, *byTool[tool])
	}

	return s
}

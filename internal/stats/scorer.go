/*
Package stats summarizes stored usage history.

Tools are ranked by a blend of how often they are used, how recently, and
how safely (the share of interactions without sensitive data).
*/
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/khanglvm/promptwatch/internal/storage"
)

const (
	// frequencyWeight is the weight for frequency in the score (0.6 = 60%).
	frequencyWeight = 0.6

	// recencyWeight is the weight for recency in the score (0.3 = 30%).
	recencyWeight = 0.3

	// safetyWeight is the weight for clean interactions in the score.
	safetyWeight = 0.1

	// FrequencyWindow is the time window counted for frequency (7 days).
	FrequencyWindow = 7 * 24 * time.Hour

	// recencyHalfLife is the half-life for exponential decay (24 hours).
	recencyHalfLife = 24 * time.Hour

	// highFrequency is the use count that normalizes to 1.0.
	highFrequency = 100.0
)

// Score calculates a tool's score from its usage history at time now.
// Formula: 0.6*frequency + 0.3*recency + 0.1*safety
func Score(tool string, history []storage.UsageEvent, now time.Time) float64 {
	if len(history) == 0 {
		return 0.0
	}

	freq := calculateFrequency(tool, history, now)
	recency := calculateRecency(tool, history, now)
	safety := calculateSafety(tool, history)

	return frequencyWeight*freq + recencyWeight*recency + safetyWeight*safety
}

// calculateFrequency counts uses in the frequency window, normalized 0-1.
func calculateFrequency(tool string, history []storage.UsageEvent, now time.Time) float64 {
	windowStart := now.Add(-FrequencyWindow)

	count := 0
	for _, event := range history {
		if event.Tool == tool && event.Timestamp.After(windowStart) {
			count++
		}
	}

	return math.Min(float64(count)/highFrequency, 1.0)
}

// calculateRecency averages an exponential decay over the tool's events.
// After 24 hours an event weighs 0.5, after 48 hours 0.25.
func calculateRecency(tool string, history []storage.UsageEvent, now time.Time) float64 {
	sum := 0.0
	count := 0

	for _, event := range history {
		if event.Tool != tool {
			continue
		}
		hoursSince := math.Max(now.Sub(event.Timestamp).Hours(), 0)
		sum += math.Exp(-math.Ln2 * hoursSince / recencyHalfLife.Hours())
		count++
	}

	if count == 0 {
		return 0.0
	}
	return math.Min(sum/float64(count), 1.0)
}

// calculateSafety is the share of the tool's events with no sensitive data.
func calculateSafety(tool string, history []storage.UsageEvent) float64 {
	clean := 0
	count := 0

	for _, event := range history {
		if event.Tool != tool {
			continue
		}
		count++
		if !event.SensitiveDataDetected {
			clean++
		}
	}

	if count == 0 {
		return 0.0
	}
	return float64(clean) / float64(count)
}

// ToolScore represents a tool with its score for ranking.
type ToolScore struct {
	Tool  string  `json:"tool"`
	Score float64 `json:"score"`
}

// RankTools scores every tool present in history, highest first. Ties are
// broken by name.
func RankTools(history []storage.UsageEvent, now time.Time) []ToolScore {
	seen := make(map[string]bool)
	var tools []string
	for _, event := range history {
		if event.Tool != "" && !seen[event.Tool] {
			seen[event.Tool] = true
			tools = append(tools, event.Tool)
		}
	}

	scores := make([]ToolScore, 0, len(tools))
	for _, tool := range tools {
		scores = append(scores, ToolScore{Tool: tool, Score: Score(tool, history, now)})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Tool < scores[j].Tool
	})

	return scores
}

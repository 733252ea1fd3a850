package notify

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/detect"
	"github.com/khanglvm/promptwatch/internal/model"
)

// Policy selects the notification for an analysis result. It is safe for
// concurrent use.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewPolicy creates a Policy drawing from src. A nil src seeds from the clock.
func NewPolicy(src rand.Source) *Policy {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Policy{rng: rand.New(src), now: time.Now}
}

// Select returns at most one notification, by priority: critical alert,
// high-risk warning, prompt tip, learning tip. Tips are subject to a random
// draw scaled by the frequency preference. Nil means show nothing.
func (p *Policy) Select(result model.AnalysisResult, prefs config.NotificationPreferences) *Notification {
	if !prefs.Enabled {
		return nil
	}
	mult := prefs.Frequency.Multiplier()

	var n *Notification
	switch {
	case result.RiskLevel == model.RiskCritical && prefs.CriticalAlerts:
		n = criticalNotification(result)
	case result.RiskLevel == model.RiskHigh && prefs.SecurityWarnings:
		n = warningNotification(result)
	}

	if n == nil && prefs.PromptSuggestions {
		if s, ok := improvedPromptSuggestion(result); ok && p.draw() < mult {
			n = tipNotification(s)
		}
	}

	if n == nil && prefs.LearningTips && result.LearningOpportunity != nil && p.draw() < mult/2 {
		n = learningNotification(result.LearningOpportunity)
	}

	if n == nil {
		return nil
	}
	n.ID = uuid.NewString()
	n.Actions = Actions(n.Kind)
	n.Position = prefs.Position
	n.Timestamp = p.now()
	return n
}

func (p *Policy) draw() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func criticalNotification(result model.AnalysisResult) *Notification {
	tool := detect.ToolDisplayName(result.AIToolDetected)
	return &Notification{
		Kind:        KindCritical,
		Title:       "Critical: sensitive data visible to " + tool,
		Message:     fmt.Sprintf("Detected %s. Remove it before sending and rotate any exposed credentials.", describeTypes(result.SensitiveDataTypes)),
		Suggestions: securitySuggestions(result.Suggestions),
		Duration:    criticalDuration,
	}
}

func warningNotification(result model.AnalysisResult) *Notification {
	tool := detect.ToolDisplayName(result.AIToolDetected)
	return &Notification{
		Kind:        KindWarning,
		Title:       "Sensitive content shared with " + tool,
		Message:     fmt.Sprintf("Detected %s. Review the content before sending.", describeTypes(result.SensitiveDataTypes)),
		Suggestions: securitySuggestions(result.Suggestions),
		Duration:    warningDuration,
	}
}

func tipNotification(s model.Suggestion) *Notification {
	return &Notification{
		Kind:        KindTip,
		Title:       s.Title,
		Message:     s.Description,
		Suggestions: []model.Suggestion{s},
		Duration:    tipDuration,
		ResourceURL: s.LearningResource,
	}
}

func learningNotification(opp *model.LearningOpportunity) *Notification {
	return &Notification{
		Kind:        KindLearning,
		Title:       opp.Title,
		Message:     opp.Description,
		Duration:    tipDuration,
		ResourceURL: opp.ResourceURL,
	}
}

func improvedPromptSuggestion(result model.AnalysisResult) (model.Suggestion, bool) {
	for _, s := range result.Suggestions {
		if s.ImprovedPrompt != "" {
			return s, true
		}
	}
	return model.Suggestion{}, false
}

func securitySuggestions(all []model.Suggestion) []model.Suggestion {
	var out []model.Suggestion
	for _, s := range all {
		if s.Type == model.SuggestionSecurity || s.Type == model.SuggestionAlternative {
			out = append(out, s)
		}
	}
	return out
}

func describeTypes(types []string) string {
	if len(types) == 0 {
		return "sensitive data"
	}
	return strings.Join(types, ", ")
}

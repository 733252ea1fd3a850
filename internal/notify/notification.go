/*
Package notify decides which notification to show for an analyzed sample and
delivers it to one or more sinks.

The Policy picks at most one Notification per sample. A Dispatcher hands it
to a Sink without blocking the caller; when the user picks an action the
sink reports it back through an ActionHandler.
*/
package notify

import (
	"context"
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
)

// Kind is the notification category.
type Kind string

const (
	KindCritical Kind = "critical"
	KindWarning  Kind = "warning"
	KindTip      Kind = "tip"
	KindLearning Kind = "learning"
)

// Action labels rendered by sinks and reported back to the ActionHandler.
const (
	ActionRemoveSensitive = "Remove Sensitive Data"
	ActionUnderstandRisk  = "I Understand the Risk"
	ActionReviewContent   = "Review Content"
	ActionDismiss         = "Dismiss"
	ActionShowImproved    = "Show Improved Prompt"
	ActionLearnMore       = "Learn More"
	ActionNotNow          = "Not Now"
)

// Actions returns the fixed action set for a kind.
func Actions(kind Kind) []string {
	switch kind {
	case KindCritical:
		return []string{ActionRemoveSensitive, ActionUnderstandRisk}
	case KindWarning:
		return []string{ActionReviewContent, ActionDismiss}
	case KindTip:
		return []string{ActionShowImproved, ActionDismiss}
	case KindLearning:
		return []string{ActionLearnMore, ActionNotNow}
	default:
		return nil
	}
}

// Display durations. Critical alerts stay until acted on.
const (
	criticalDuration = 0
	warningDuration  = 10 * time.Second
	tipDuration      = 8 * time.Second
)

// Notification is what a sink renders.
type Notification struct {
	ID          string             `json:"id"`
	Kind        Kind               `json:"type"`
	Title       string             `json:"title"`
	Message     string             `json:"message"`
	Suggestions []model.Suggestion `json:"suggestions,omitempty"`
	Actions     []string           `json:"actions"`

	// Duration is how long the notification stays visible; zero means until
	// the user acts.
	Duration time.Duration `json:"duration"`

	Position    string    `json:"position,omitempty"`
	ResourceURL string    `json:"resourceUrl,omitempty"`
	Timestamp   time.Time `json:"timestamp"`

	// AlertID links a security notification to its stored alert, if any.
	AlertID int64 `json:"alertId,omitempty"`
}

// ImprovedPrompt returns the first improved prompt among the suggestions.
func (n Notification) ImprovedPrompt() string {
	for _, s := range n.Suggestions {
		if s.ImprovedPrompt != "" {
			return s.ImprovedPrompt
		}
	}
	return ""
}

// Sink renders a notification and, when the user picks an action, returns
// its label. Returning "" with a nil error means no action was taken.
type Sink interface {
	Notify(ctx context.Context, n Notification) (string, error)
}

// ActionHandler receives the action a user chose for a notification.
type ActionHandler func(n Notification, action string)

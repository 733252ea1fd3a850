package monitor

import (
	"log"

	"github.com/khanglvm/promptwatch/internal/notify"
)

// handleAction applies the user's choice on a notification. Acknowledging
// the risk of a stored alert resolves it.
func (s *Service) handleAction(n notify.Notification, action string) {
	log.Printf("[monitor] %s notification %s: %q", n.Kind, n.ID, action)

	if action == notify.ActionUnderstandRisk && n.AlertID != 0 {
		if err := s.store.ResolveAlert(n.AlertID, s.now()); err != nil {
			log.Printf("[monitor] Warning: failed to resolve alert %d: %v", n.AlertID, err)
		}
	}

	if s.onAction != nil {
		s.onAction(n, action)
	}
}

package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/khanglvm/promptwatch/internal/capture"
	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/dashboard"
	"github.com/khanglvm/promptwatch/internal/detect"
	"github.com/khanglvm/promptwatch/internal/model"
	"github.com/khanglvm/promptwatch/internal/notify"
	"github.com/khanglvm/promptwatch/internal/storage"
)

// SkipReason names the gate that ended a tick early.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipBusy        SkipReason = "busy"
	SkipThrottled   SkipReason = "throttled"
	SkipNotAIWindow SkipReason = "not-ai-window"
	SkipBlankText   SkipReason = "blank-text"
	SkipCancelled   SkipReason = "cancelled"
	SkipFailed      SkipReason = "failed"
)

// TickReport describes what one pass through the pipeline did.
type TickReport struct {
	Skipped        SkipReason
	Classification model.WindowClassification
	Result         *model.AnalysisResult
	AlertID        int64
	Notification   *notify.Notification
	Err            error
}

// Analyzed reports whether the text reached the analyzer.
func (r TickReport) Analyzed() bool {
	return r.Result != nil
}

// HandleCapture runs one capture sample through the pipeline. It is the
// scheduler callback and is safe to call directly.
func (s *Service) HandleCapture(ctx context.Context, sample capture.Sample) TickReport {
	if !s.busy.CompareAndSwap(false, true) {
		s.debugf("tick skipped: previous tick still running")
		return TickReport{Skipped: SkipBusy}
	}
	defer s.busy.Store(false)

	cfg := s.cfg.Config()
	now := s.now()

	s.mu.Lock()
	s.counters.Ticks++
	last := s.lastAnalysis
	s.mu.Unlock()

	if !last.IsZero() && now.Sub(last) < cfg.Monitoring.AnalysisThrottle() {
		return TickReport{Skipped: SkipThrottled}
	}

	// Only the title is known before OCR; text is never extracted for
	// windows that cannot be AI tools.
	cls := s.classifier.Classify(sample.ActiveWindow, "")
	report := TickReport{Classification: cls}
	if !cls.IsAIWindow {
		s.debugf("tick skipped: %q is not an AI window", sample.ActiveWindow)
		report.Skipped = SkipNotAIWindow
		return report
	}

	extracted, err := s.extractor.ExtractText(ctx, sample)
	if err != nil {
		log.Printf("[monitor] Warning: text extraction failed: %v", err)
		report.Skipped = SkipFailed
		report.Err = fmt.Errorf("extract text: %w", err)
		return report
	}
	if strings.TrimSpace(extracted.Text) == "" {
		s.debugf("tick skipped: no text in %q", sample.ActiveWindow)
		report.Skipped = SkipBlankText
		return report
	}
	if ctx.Err() != nil {
		report.Skipped = SkipCancelled
		report.Err = ctx.Err()
		return report
	}

	s.mu.Lock()
	s.lastAnalysis = now
	s.mu.Unlock()

	result := s.analyzer.Analyze(extracted.Text, sample.ActiveWindow)
	report.Result = &result
	s.debugf("analyzed %s: tool=%q risk=%s quality=%s ocr=%.2f", cls.Platform, result.AIToolDetected, result.RiskLevel, result.PromptQuality, extracted.Confidence)

	report.AlertID, err = s.record(result, extracted.Text)
	if err != nil {
		log.Printf("[monitor] Warning: tick abandoned: %v", err)
		report.Skipped = SkipFailed
		report.Err = err
		return report
	}

	if !s.classifier.ShouldNotify(cls, result) {
		return report
	}

	s.mu.Lock()
	lastShown := s.lastNotification
	s.mu.Unlock()
	if !lastShown.IsZero() && now.Sub(lastShown) < cfg.Monitoring.NotificationThrottle() {
		s.debugf("notification throttled")
		return report
	}
	if !cfg.Notifications.Enabled {
		return report
	}

	report.Notification = s.notify(ctx, result, cfg.Notifications, report.AlertID, now)
	return report
}

// AnalyzeNow analyzes text on demand. It skips window gating,
// both throttles and the notification gate; the result is still persisted
// and a notification is still subject to preferences and policy. It works
// whether or not the service is running.
func (s *Service) AnalyzeNow(ctx context.Context, text, windowTitle string) (TickReport, error) {
	cfg := s.cfg.Config()
	now := s.now()

	report := TickReport{Classification: s.classifier.Classify(windowTitle, text)}
	result := s.analyzer.Analyze(text, windowTitle)
	report.Result = &result

	alertID, err := s.record(result, text)
	if err != nil {
		report.Skipped = SkipFailed
		report.Err = err
		return report, err
	}
	report.AlertID = alertID

	if cfg.Notifications.Enabled {
		report.Notification = s.notify(ctx, result, cfg.Notifications, alertID, now)
	}
	return report, nil
}

// record persists the derived fields of result. The raw text is only ever
// stored in sanitized form on an alert.
func (s *Service) record(result model.AnalysisResult, text string) (int64, error) {
	cfg := s.cfg.Config()

	s.mu.Lock()
	sessionID := ""
	if s.state == Active || s.state == Stopping {
		sessionID = s.session.ID
	}
	s.counters.Analyzed++
	s.mu.Unlock()

	if result.AIToolDetected != "" {
		event := storage.UsageEvent{
			Timestamp:             result.Timestamp,
			Tool:                  result.AIToolDetected,
			RiskLevel:             result.RiskLevel,
			ContentType:           result.ContentType,
			SensitiveDataDetected: result.SensitiveDataDetected,
			APIKeyExposed:         result.HasSensitiveType(detect.CategoryAPIKey),
			ComplianceFlags:       detect.ComplianceFlags(result.SensitiveDataTypes),
			ContentHash:           result.ContentHash,
			SessionID:             sessionID,
		}
		if err := s.store.RecordUsage(event); err != nil {
			return 0, fmt.Errorf("record usage: %w", err)
		}

		s.mu.Lock()
		if sessionID != "" && sessionID == s.session.ID {
			s.session.TotalUsage++
			s.session.TotalCost += cfg.Monitoring.CostPerInteraction
		}
		s.mu.Unlock()
	}

	if s.forwarder != nil {
		s.forwarder.Forward(dashboard.NewRecord(result, sessionID))
	}

	if result.RiskLevel != model.RiskHigh && result.RiskLevel != model.RiskCritical {
		return 0, nil
	}

	alert := storage.SecurityAlert{
		Timestamp:        result.Timestamp,
		AlertType:        alertType(result),
		Severity:         result.RiskLevel,
		Tool:             result.AIToolDetected,
		SanitizedContent: detect.Sanitize(text),
		SessionID:        sessionID,
	}
	id, err := s.store.RecordAlert(alert)
	if err != nil {
		return 0, fmt.Errorf("record alert: %w", err)
	}
	alert.ID = id

	s.mu.Lock()
	s.counters.Alerts++
	s.mu.Unlock()

	if s.index != nil && id != 0 {
		if err := s.index.IndexAlerts([]storage.SecurityAlert{alert}); err != nil {
			log.Printf("[monitor] Warning: failed to index alert %d: %v", id, err)
		}
	}
	return id, nil
}

// alertType is the first detected category in table order.
func alertType(result model.AnalysisResult) string {
	if len(result.SensitiveDataTypes) > 0 {
		return result.SensitiveDataTypes[0]
	}
	return "risk"
}

func (s *Service) notify(ctx context.Context, result model.AnalysisResult, prefs config.NotificationPreferences, alertID int64, now time.Time) *notify.Notification {
	n := s.policy.Select(result, prefs)
	if n == nil {
		return nil
	}
	n.AlertID = alertID

	s.mu.Lock()
	s.lastNotification = now
	s.counters.Notified++
	s.mu.Unlock()

	if s.dispatcher != nil {
		// Delivery outlives the tick; the dispatcher bounds it.
		s.dispatcher.Dispatch(context.WithoutCancel(ctx), *n)
	}
	return n
}

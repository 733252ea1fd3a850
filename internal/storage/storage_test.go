package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	storage := NewStorage(dbPath)

	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer storage.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}
	if !storage.Enabled() {
		t.Error("storage should be enabled after Init")
	}
}

// TestInitReopen verifies migrations are not re-applied on an existing file.
func TestInitReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first := NewStorage(dbPath)
	if err := first.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := first.RecordAlert(SecurityAlert{AlertType: "apiKey", Severity: model.RiskCritical}); err != nil {
		t.Fatalf("RecordAlert failed: %v", err)
	}
	first.Close()

	second := NewStorage(dbPath)
	if err := second.Init(); err != nil {
		t.Fatalf("reopen Init failed: %v", err)
	}
	defer second.Close()

	alerts, err := second.ListAlerts(AlertFilter{})
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Errorf("expected alert to survive reopen, got %d", len(alerts))
	}
}

// TestRecordUsage verifies recording and reading back usage events.
func TestRecordUsage(t *testing.T) {
	storage := newTestStorage(t)

	now := time.Now()
	events := []UsageEvent{
		{
			Timestamp:             now.Add(-2 * time.Minute),
			Tool:                  "claude",
			RiskLevel:             model.RiskCritical,
			ContentType:           model.ContentText,
			SensitiveDataDetected: true,
			APIKeyExposed:         true,
			ComplianceFlags:       []string{"CREDENTIALS"},
			ContentHash:           "abc",
			SessionID:             "s1",
		},
		{Timestamp: now.Add(-time.Minute), Tool: "chatgpt", RiskLevel: model.RiskLow, ContentType: model.ContentCode, ContentHash: "def"},
		{Timestamp: now.Add(-3 * time.Hour), Tool: "claude", RiskLevel: model.RiskLow, ContentType: model.ContentText, ContentHash: "old"},
	}
	for _, e := range events {
		if err := storage.RecordUsage(e); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	history, err := storage.GetUsageHistory("claude", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetUsageHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 usage event, got %d", len(history))
	}

	got := history[0]
	if got.ID == 0 || got.Tool != "claude" || got.RiskLevel != model.RiskCritical {
		t.Errorf("unexpected event: %+v", got)
	}
	if !got.SensitiveDataDetected || !got.APIKeyExposed {
		t.Error("boolean flags not round-tripped")
	}
	if len(got.ComplianceFlags) != 1 || got.ComplianceFlags[0] != "CREDENTIALS" {
		t.Errorf("compliance flags = %v", got.ComplianceFlags)
	}
	if got.SessionID != "s1" || got.ContentHash != "abc" {
		t.Errorf("unexpected ids: %+v", got)
	}
	if got.Timestamp.Sub(events[0].Timestamp).Abs() > time.Millisecond {
		t.Errorf("timestamp drift: %v vs %v", got.Timestamp, events[0].Timestamp)
	}

	all, err := storage.GetUsageHistory("", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetUsageHistory failed: %v", err)
	}
	if len(all) != 2 || all[0].Tool != "chatgpt" {
		t.Errorf("expected newest first across tools, got %+v", all)
	}
	if limited, _ := storage.ListUsage(time.Time{}, 2); len(limited) != 2 || limited[1].Tool != "claude" {
		t.Errorf("ListUsage limit: %+v", limited)
	}
	if all[0].ComplianceFlags == nil {
		t.Error("empty compliance flags should read back as an empty slice")
	}
}

func TestAlerts(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Now()

	critical, err := storage.RecordAlert(SecurityAlert{
		Timestamp:        now.Add(-time.Minute),
		AlertType:        "apiKey",
		Severity:         model.RiskCritical,
		Tool:             "claude",
		SanitizedContent: "key [REDACTED_API_KEY]",
		SessionID:        "s1",
	})
	if err != nil {
		t.Fatalf("RecordAlert failed: %v", err)
	}
	high, err := storage.RecordAlert(SecurityAlert{Timestamp: now, AlertType: "email", Severity: model.RiskHigh})
	if err != nil {
		t.Fatalf("RecordAlert failed: %v", err)
	}
	if critical == 0 || high == 0 || critical == high {
		t.Fatalf("expected distinct ids, got %d and %d", critical, high)
	}

	all, err := storage.ListAlerts(AlertFilter{})
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != high {
		t.Fatalf("expected newest first, got %+v", all)
	}

	onlyCritical, _ := storage.ListAlerts(AlertFilter{Severity: model.RiskCritical})
	if len(onlyCritical) != 1 || onlyCritical[0].SanitizedContent != "key [REDACTED_API_KEY]" {
		t.Errorf("severity filter: %+v", onlyCritical)
	}

	limited, _ := storage.ListAlerts(AlertFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit: got %d", len(limited))
	}

	resolvedAt := now.Add(time.Minute)
	if err := storage.ResolveAlert(critical, resolvedAt); err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	if err := storage.ResolveAlert(critical, resolvedAt.Add(time.Hour)); err != nil {
		t.Fatalf("second ResolveAlert failed: %v", err)
	}

	alert, err := storage.GetAlert(critical)
	if err != nil {
		t.Fatalf("GetAlert failed: %v", err)
	}
	if !alert.Resolved || alert.ResolvedAt == nil {
		t.Fatalf("alert not resolved: %+v", alert)
	}
	if alert.ResolvedAt.Sub(resolvedAt).Abs() > time.Millisecond {
		t.Errorf("resolution time should keep the first value, got %v", alert.ResolvedAt)
	}

	open, _ := storage.ListAlerts(AlertFilter{UnresolvedOnly: true})
	if len(open) != 1 || open[0].ID != high {
		t.Errorf("unresolved filter: %+v", open)
	}
}

func TestAlertNotFound(t *testing.T) {
	storage := newTestStorage(t)

	err := storage.ResolveAlert(999, time.Now())
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Table != "security_alerts" {
		t.Errorf("expected StorageError for security_alerts, got %v", err)
	}

	if _, err := storage.GetAlert(999); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	storage := newTestStorage(t)
	start := time.Now().Add(-time.Hour)

	if err := storage.OpenSession(MonitoringSession{ID: "s1", StartTime: start}); err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if err := storage.OpenSession(MonitoringSession{ID: "s1"}); err == nil {
		t.Error("expected duplicate session id to fail")
	}
	if err := storage.OpenSession(MonitoringSession{}); err == nil {
		t.Error("expected missing id to fail")
	}

	sessions, err := storage.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || !sessions[0].Open() {
		t.Fatalf("expected one open session, got %+v", sessions)
	}

	end := start.Add(30 * time.Minute)
	if err := storage.CloseSession(MonitoringSession{ID: "s1", EndTime: &end, TotalUsage: 4, TotalCost: 0.08}); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}

	sessions, _ = storage.ListSessions(1)
	got := sessions[0]
	if got.Open() || got.TotalUsage != 4 || got.TotalCost != 0.08 {
		t.Errorf("unexpected closed session: %+v", got)
	}
	if got.EndTime.Sub(end).Abs() > time.Millisecond {
		t.Errorf("end time = %v, want %v", got.EndTime, end)
	}

	if err := storage.CloseSession(MonitoringSession{ID: "missing"}); !IsNotFound(err) {
		t.Errorf("expected not found for unknown session, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return now }

	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	storage.RecordUsage(UsageEvent{Timestamp: old, Tool: "claude", ContentHash: "a"})
	storage.RecordUsage(UsageEvent{Timestamp: recent, Tool: "claude", ContentHash: "b"})
	storage.RecordAlert(SecurityAlert{Timestamp: old, AlertType: "ssn", Severity: model.RiskCritical})
	storage.RecordAlert(SecurityAlert{Timestamp: recent, AlertType: "ssn", Severity: model.RiskCritical})

	oldEnd := old.Add(time.Hour)
	storage.OpenSession(MonitoringSession{ID: "closed", StartTime: old})
	storage.CloseSession(MonitoringSession{ID: "closed", EndTime: &oldEnd})
	storage.OpenSession(MonitoringSession{ID: "still-open", StartTime: old})

	result, err := storage.Cleanup(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if result.UsageEvents != 1 || result.Alerts != 1 || result.Sessions != 1 {
		t.Errorf("unexpected cleanup counts: %+v", result)
	}

	usage, _ := storage.GetUsageHistory("", time.Time{})
	if len(usage) != 1 || usage[0].ContentHash != "b" {
		t.Errorf("recent usage should survive: %+v", usage)
	}
	sessions, _ := storage.ListSessions(0)
	if len(sessions) != 1 || sessions[0].ID != "still-open" {
		t.Errorf("open session should survive: %+v", sessions)
	}

	if result, _ := storage.Cleanup(0); result.Total() != 0 {
		t.Errorf("zero retention must not delete, got %+v", result)
	}
}

// TestGracefulDegradation verifies behavior when DB is unavailable.
func TestGracefulDegradation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	storage := NewStorage(filepath.Join(blocker, "sub", "test.db"))
	if err := storage.Init(); err == nil {
		t.Fatal("expected Init to fail under a regular file")
	}
	if storage.Enabled() {
		t.Error("storage should disable itself after a failed Init")
	}

	if err := storage.RecordUsage(UsageEvent{Tool: "test"}); err != nil {
		t.Errorf("RecordUsage should return nil on disabled storage, got: %v", err)
	}
	if id, err := storage.RecordAlert(SecurityAlert{AlertType: "ssn"}); err != nil || id != 0 {
		t.Errorf("RecordAlert on disabled storage = %d, %v", id, err)
	}
	if err := storage.OpenSession(MonitoringSession{ID: "s"}); err != nil {
		t.Errorf("OpenSession should return nil on disabled storage, got: %v", err)
	}

	history, err := storage.GetUsageHistory("test", time.Now())
	if err != nil || len(history) != 0 {
		t.Errorf("GetUsageHistory on disabled storage = %v, %v", history, err)
	}
	alerts, err := storage.ListAlerts(AlertFilter{})
	if err != nil || len(alerts) != 0 {
		t.Errorf("ListAlerts on disabled storage = %v, %v", alerts, err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("Close on disabled storage: %v", err)
	}
}

func TestNewStorageEmptyPath(t *testing.T) {
	storage := NewStorage("")
	if err := storage.Init(); err != nil {
		t.Errorf("Init on empty path should be a no-op, got %v", err)
	}
	if storage.Enabled() {
		t.Error("empty path should yield disabled storage")
	}
}

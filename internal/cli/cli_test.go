package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/model"
	"github.com/khanglvm/promptwatch/internal/storage"
)

const apiKeyPrompt = "why does this fail? key sk-abcd1234567890123456789012345678901234567890ab"

// setupHome points every command at a fresh state directory.
func setupHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROMPTWATCH_HOME", dir)
	for _, key := range []string{
		"PROMPTWATCH_TELEGRAM_TOKEN",
		"PROMPTWATCH_TELEGRAM_CHAT_ID",
		"PROMPTWATCH_DASHBOARD_URL",
		"PROMPTWATCH_INTERVAL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func openTestHistory(t *testing.T, dir string) *storage.SQLiteStorage {
	t.Helper()
	history := storage.NewStorage(filepath.Join(dir, storage.DefaultFileName))
	if err := history.Init(); err != nil {
		t.Fatalf("storage init: %v", err)
	}
	return history
}

// seedAlerts stores three alerts, oldest first, and returns their IDs.
func seedAlerts(t *testing.T, dir string) []int64 {
	t.Helper()
	history := openTestHistory(t, dir)
	defer history.Close()

	now := time.Now()
	alerts := []storage.SecurityAlert{
		{Timestamp: now.Add(-3 * time.Hour), AlertType: "financialData", Severity: model.RiskHigh, Tool: "chatgpt", SanitizedContent: "summarize the payroll export for Q3"},
		{Timestamp: now.Add(-2 * time.Hour), AlertType: "apiKey", Severity: model.RiskCritical, Tool: "claude", SanitizedContent: "debug this: [REDACTED_API_KEY]"},
		{Timestamp: now.Add(-time.Hour), AlertType: "ssn", Severity: model.RiskCritical, Tool: "chatgpt", SanitizedContent: "employee [REDACTED_SSN] payroll record"},
	}
	var ids []int64
	for _, a := range alerts {
		id, err := history.RecordAlert(a)
		if err != nil {
			t.Fatalf("RecordAlert: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	if root.Use != "promptwatch" {
		t.Errorf("Expected Use='promptwatch', got %q", root.Use)
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("Flag 'verbose' not registered")
	}

	want := []string{"run", "check", "prefs", "alerts", "stats", "cleanup", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	setupHome(t)
	out, _, err := execute(t, "", "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if info["version"] == "" {
		t.Errorf("missing version in %v", info)
	}
}

func TestCheck_Arguments(t *testing.T) {
	dir := setupHome(t)

	out, _, err := execute(t, "", "check", "chatgpt", "login", "fails,", "password: hunter2")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	for _, want := range []string{"critical", "chatgpt", "password"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, storage.DefaultFileName)); !os.IsNotExist(err) {
		t.Error("check without --record must not create history")
	}
}

func TestCheck_StdinJSON(t *testing.T) {
	setupHome(t)

	out, _, err := execute(t, "what is the revenue forecast", "check", "--json", "--window", "Chrome - claude.ai", "-")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	var report struct {
		Classification model.WindowClassification `json:"classification"`
		Result         model.AnalysisResult       `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !report.Classification.IsAIWindow || report.Classification.Platform != "Claude" {
		t.Errorf("classification = %+v", report.Classification)
	}
	if report.Result.RiskLevel != model.RiskHigh || report.Result.AIToolDetected != "claude" {
		t.Errorf("result = %+v", report.Result)
	}
}

func TestCheck_EmptyInput(t *testing.T) {
	setupHome(t)
	if _, _, err := execute(t, "   \n", "check"); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestCheck_Record(t *testing.T) {
	dir := setupHome(t)

	out, notification, err := execute(t, "", "check", "--record", "--json", "--window", "Chrome - claude.ai", apiKeyPrompt)
	if err != nil {
		t.Fatalf("check --record failed: %v", err)
	}

	var report struct {
		AlertID int64 `json:"alertId"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if report.AlertID == 0 {
		t.Fatal("expected an alert id")
	}
	if strings.TrimSpace(notification) == "" {
		t.Error("expected a console notification on stderr")
	}

	history := openTestHistory(t, dir)
	defer history.Close()
	alert, err := history.GetAlert(report.AlertID)
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if strings.Contains(alert.SanitizedContent, "sk-abcd") {
		t.Errorf("stored alert is not sanitized: %q", alert.SanitizedContent)
	}
	usage, _ := history.ListUsage(time.Time{}, 0)
	if len(usage) != 1 || usage[0].Tool != "claude" || !usage[0].APIKeyExposed {
		t.Errorf("usage = %+v", usage)
	}
}

func TestPrefs_SetGetShow(t *testing.T) {
	dir := setupHome(t)

	if _, _, err := execute(t, "", "prefs", "set", "notifications.frequency", "occasional"); err != nil {
		t.Fatalf("prefs set failed: %v", err)
	}
	out, _, err := execute(t, "", "prefs", "get", "notifications.frequency")
	if err != nil {
		t.Fatalf("prefs get failed: %v", err)
	}
	if strings.TrimSpace(out) != "occasional" {
		t.Errorf("expected occasional, got %q", out)
	}

	cfg, err := config.LoadFrom(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if cfg.Notifications.Frequency != config.FrequencyOccasional {
		t.Errorf("persisted frequency = %q", cfg.Notifications.Frequency)
	}

	out, _, err = execute(t, "", "prefs", "show")
	if err != nil {
		t.Fatalf("prefs show failed: %v", err)
	}
	for _, want := range []string{"notifications.frequency", "occasional", "monitoring.intervalSeconds"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q", want)
		}
	}
}

func TestPrefs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"prefs", "set", "notifications.volume", "11"}},
		{"bad bool", []string{"prefs", "set", "notifications.enabled", "maybe"}},
		{"invalid frequency", []string{"prefs", "set", "notifications.frequency", "hourly"}},
		{"interval too small", []string{"prefs", "set", "monitoring.intervalSeconds", "0"}},
		{"missing value", []string{"prefs", "set", "notifications.enabled"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupHome(t)
			if _, _, err := execute(t, "", tt.args...); err == nil {
				t.Error("expected error")
			}
			if _, err := os.Stat(filepath.Join(dir, "config.json")); !os.IsNotExist(err) {
				t.Error("rejected change must not write config")
			}
		})
	}
}

func TestPrefs_TokenRedacted(t *testing.T) {
	setupHome(t)
	t.Setenv("PROMPTWATCH_TELEGRAM_TOKEN", "123:secret")
	t.Setenv("PROMPTWATCH_TELEGRAM_CHAT_ID", "42")

	out, _, err := execute(t, "", "prefs", "show", "--json")
	if err != nil {
		t.Fatalf("prefs show failed: %v", err)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("token leaked in output:\n%s", out)
	}
}

func TestPrefs_Reset(t *testing.T) {
	setupHome(t)
	execute(t, "", "prefs", "set", "notifications.learningTips", "true")

	if _, _, err := execute(t, "", "prefs", "reset"); err != nil {
		t.Fatalf("prefs reset failed: %v", err)
	}
	out, _, _ := execute(t, "", "prefs", "get", "notifications.learningTips")
	if strings.TrimSpace(out) != "false" {
		t.Errorf("expected default false after reset, got %q", out)
	}
}

func TestAlerts_ListAndResolve(t *testing.T) {
	dir := setupHome(t)
	ids := seedAlerts(t, dir)

	listJSON := func(args ...string) []storage.SecurityAlert {
		t.Helper()
		out, _, err := execute(t, "", append([]string{"alerts", "list", "--json"}, args...)...)
		if err != nil {
			t.Fatalf("alerts list failed: %v", err)
		}
		var alerts []storage.SecurityAlert
		if err := json.Unmarshal([]byte(out), &alerts); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		return alerts
	}

	all := listJSON()
	if len(all) != 3 || all[0].ID != ids[2] {
		t.Fatalf("expected 3 alerts newest first, got %+v", all)
	}
	if got := listJSON("--severity", "critical"); len(got) != 2 {
		t.Errorf("expected 2 critical alerts, got %d", len(got))
	}
	if got := listJSON("--limit", "1"); len(got) != 1 {
		t.Errorf("expected 1 alert with limit, got %d", len(got))
	}

	out, _, err := execute(t, "", "alerts", "resolve", "#1")
	if err != nil {
		t.Fatalf("alerts resolve failed: %v", err)
	}
	if !strings.Contains(out, "resolved") {
		t.Errorf("unexpected output %q", out)
	}
	if got := listJSON("--unresolved"); len(got) != 2 {
		t.Errorf("expected 2 unresolved alerts, got %d", len(got))
	}

	out, _, err = execute(t, "", "alerts", "list")
	if err != nil {
		t.Fatalf("alerts list failed: %v", err)
	}
	if !strings.Contains(out, "REDACTED_SSN") || !strings.Contains(out, "Alerts (3)") {
		t.Errorf("table output missing rows:\n%s", out)
	}
}

func TestAlerts_ResolveErrors(t *testing.T) {
	dir := setupHome(t)
	seedAlerts(t, dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"not found", []string{"alerts", "resolve", "999"}, "not found"},
		{"not a number", []string{"alerts", "resolve", "abc"}, "invalid alert id"},
		{"no id", []string{"alerts", "resolve"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestAlerts_SeverityValidation(t *testing.T) {
	setupHome(t)
	for _, sev := range []string{"low", "urgent"} {
		if _, _, err := execute(t, "", "alerts", "list", "--severity", sev); err == nil {
			t.Errorf("expected error for severity %q", sev)
		}
	}
}

func TestAlerts_Search(t *testing.T) {
	dir := setupHome(t)
	ids := seedAlerts(t, dir)

	search := func() []struct {
		ID int64 `json:"id"`
	} {
		t.Helper()
		out, _, err := execute(t, "", "alerts", "search", "--json", "--tool", "chatgpt", "payroll")
		if err != nil {
			t.Fatalf("alerts search failed: %v", err)
		}
		var hits []struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(out), &hits); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		return hits
	}

	hits := search()
	if len(hits) != 2 {
		t.Fatalf("expected 2 payroll hits, got %+v", hits)
	}
	if _, err := os.Stat(filepath.Join(dir, "alerts.bleve")); err != nil {
		t.Errorf("persistent index not created: %v", err)
	}

	// A running monitor owns the persistent index; search falls back to
	// an in-memory copy.
	lock, err := acquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer releaseInstanceLock(lock)

	hits = search()
	if len(hits) != 2 || (hits[0].ID != ids[0] && hits[0].ID != ids[2]) {
		t.Errorf("in-memory search = %+v", hits)
	}
}

func TestAlerts_Export(t *testing.T) {
	dir := setupHome(t)
	seedAlerts(t, dir)

	t.Run("yaml", func(t *testing.T) {
		out, _, err := execute(t, "", "alerts", "export", "--format", "yaml")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		var alerts []storage.SecurityAlert
		if err := yaml.Unmarshal([]byte(out), &alerts); err != nil {
			t.Fatalf("invalid YAML: %v\n%s", err, out)
		}
		if len(alerts) != 3 || alerts[0].AlertType != "ssn" {
			t.Errorf("alerts = %+v", alerts)
		}
	})

	t.Run("jsonl to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alerts.jsonl")
		out, _, err := execute(t, "", "alerts", "export", "--format", "jsonl", "--output", path)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out, "Exported 3 alerts") {
			t.Errorf("unexpected output %q", out)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("open export: %v", err)
		}
		defer f.Close()
		lines := 0
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var a storage.SecurityAlert
			if err := json.Unmarshal(scanner.Bytes(), &a); err != nil {
				t.Errorf("line %d: %v", lines+1, err)
			}
			lines++
		}
		if lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, _, err := execute(t, "", "alerts", "export", "--format", "csv"); err == nil {
			t.Error("expected error for csv")
		}
	})
}

func TestStats(t *testing.T) {
	dir := setupHome(t)
	execute(t, "", "prefs", "set", "monitoring.costPerInteraction", "0.5")

	history := openTestHistory(t, dir)
	now := time.Now()
	events := []storage.UsageEvent{
		{Timestamp: now.Add(-time.Hour), Tool: "claude", RiskLevel: model.RiskCritical, SensitiveDataDetected: true, APIKeyExposed: true, ComplianceFlags: []string{"CREDENTIALS"}},
		{Timestamp: now.Add(-2 * time.Hour), Tool: "claude", RiskLevel: model.RiskLow},
		{Timestamp: now.Add(-3 * time.Hour), Tool: "chatgpt", RiskLevel: model.RiskLow},
		{Timestamp: now.Add(-20 * 24 * time.Hour), Tool: "gemini", RiskLevel: model.RiskLow},
	}
	for _, e := range events {
		if err := history.RecordUsage(e); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}
	history.Close()

	out, _, err := execute(t, "", "stats", "--json")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var report struct {
		Interactions    int            `json:"interactions"`
		EstimatedCost   float64        `json:"estimatedCost"`
		ComplianceFlags map[string]int `json:"complianceFlags"`
		Tools           []struct {
			Tool string `json:"tool"`
		} `json:"tools"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if report.Interactions != 3 || report.EstimatedCost != 1.5 {
		t.Errorf("interactions=%d cost=%f", report.Interactions, report.EstimatedCost)
	}
	if report.ComplianceFlags["CREDENTIALS"] != 1 {
		t.Errorf("compliance = %v", report.ComplianceFlags)
	}
	if len(report.Tools) != 2 || report.Tools[0].Tool != "claude" {
		t.Errorf("tools = %+v", report.Tools)
	}

	out, _, err = execute(t, "", "stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "Interactions:   3") || !strings.Contains(out, "CREDENTIALS") {
		t.Errorf("text output:\n%s", out)
	}
}

func TestCleanup(t *testing.T) {
	dir := setupHome(t)

	history := openTestHistory(t, dir)
	old := time.Now().Add(-100 * 24 * time.Hour)
	history.RecordUsage(storage.UsageEvent{Timestamp: old, Tool: "claude", RiskLevel: model.RiskLow})
	history.RecordUsage(storage.UsageEvent{Timestamp: time.Now(), Tool: "claude", RiskLevel: model.RiskLow})
	history.RecordAlert(storage.SecurityAlert{Timestamp: old, AlertType: "apiKey", Severity: model.RiskCritical})
	history.Close()

	out, _, err := execute(t, "", "cleanup", "--days", "30")
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if !strings.Contains(out, "Removed 1 usage events, 1 alerts") {
		t.Errorf("unexpected output %q", out)
	}

	out, _, err = execute(t, "", "cleanup", "--days", "0")
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if !strings.Contains(out, "unlimited") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_SingleInstance(t *testing.T) {
	dir := setupHome(t)

	lock, err := acquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer releaseInstanceLock(lock)

	_, _, err = execute(t, "", "run")
	if !errors.Is(err, errAlreadyRunning) {
		t.Errorf("expected errAlreadyRunning, got %v", err)
	}
}

func TestRun_IntervalValidation(t *testing.T) {
	setupHome(t)
	if _, _, err := execute(t, "", "run", "--interval", "500ms"); err == nil {
		t.Error("expected error for sub-second interval")
	}
}

func TestInstanceLock_Release(t *testing.T) {
	dir := t.TempDir()

	first, err := acquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := acquireInstanceLock(dir); !errors.Is(err, errAlreadyRunning) {
		t.Errorf("second acquire should fail, got %v", err)
	}

	releaseInstanceLock(first)
	again, err := acquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	releaseInstanceLock(again)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a  b\n c", 10, "a b c"},
		{"abcdefghijkl", 8, "abcde..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

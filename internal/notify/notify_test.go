package notify

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/model"
)

func allPrefs() config.NotificationPreferences {
	return config.NotificationPreferences{
		Enabled:           true,
		CriticalAlerts:    true,
		SecurityWarnings:  true,
		PromptSuggestions: true,
		LearningTips:      true,
		Frequency:         config.FrequencyAll,
		Position:          "top-right",
	}
}

func tipResult() model.AnalysisResult {
	return model.AnalysisResult{
		RiskLevel:     model.RiskLow,
		PromptQuality: model.QualityPoor,
		Suggestions: []model.Suggestion{{
			Type:           model.SuggestionQuality,
			Title:          "Make your prompt more specific",
			ImprovedPrompt: "I need help with [specific topic/task].",
		}},
		LearningOpportunity: &model.LearningOpportunity{Kind: model.LearningPrompting, Title: "Prompting fundamentals"},
	}
}

func TestActions(t *testing.T) {
	tests := []struct {
		kind Kind
		want []string
	}{
		{KindCritical, []string{"Remove Sensitive Data", "I Understand the Risk"}},
		{KindWarning, []string{"Review Content", "Dismiss"}},
		{KindTip, []string{"Show Improved Prompt", "Dismiss"}},
		{KindLearning, []string{"Learn More", "Not Now"}},
	}
	for _, tt := range tests {
		got := Actions(tt.kind)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("Actions(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestPolicySelect_Priority(t *testing.T) {
	p := NewPolicy(rand.NewSource(1))

	critical := tipResult()
	critical.RiskLevel = model.RiskCritical
	critical.AIToolDetected = "claude"
	critical.SensitiveDataTypes = []string{"apiKey"}

	n := p.Select(critical, allPrefs())
	if n == nil || n.Kind != KindCritical {
		t.Fatalf("expected critical notification, got %+v", n)
	}
	if !strings.Contains(n.Title, "Claude") || !strings.Contains(n.Message, "apiKey") {
		t.Errorf("critical notification should name tool and types: %+v", n)
	}
	if n.ID == "" || n.Position != "top-right" || n.Timestamp.IsZero() {
		t.Errorf("expected id, position and timestamp: %+v", n)
	}
	if n.Duration != 0 {
		t.Errorf("critical notification should persist, got %s", n.Duration)
	}

	high := tipResult()
	high.RiskLevel = model.RiskHigh
	if n := p.Select(high, allPrefs()); n == nil || n.Kind != KindWarning {
		t.Errorf("expected warning, got %+v", n)
	}

	if n := p.Select(tipResult(), allPrefs()); n == nil || n.Kind != KindTip {
		t.Errorf("expected tip, got %+v", n)
	} else if n.ImprovedPrompt() == "" {
		t.Error("tip must carry the improved prompt")
	}

	learning := tipResult()
	learning.Suggestions = nil
	prefs := allPrefs()
	found := false
	for i := 0; i < 50 && !found; i++ {
		if n := p.Select(learning, prefs); n != nil {
			if n.Kind != KindLearning {
				t.Fatalf("expected learning tip, got %s", n.Kind)
			}
			found = true
		}
	}
	if !found {
		t.Error("learning tip never selected at frequency all")
	}
}

func TestPolicySelect_RespectsPreferences(t *testing.T) {
	p := NewPolicy(rand.NewSource(1))

	critical := model.AnalysisResult{RiskLevel: model.RiskCritical}

	prefs := allPrefs()
	prefs.Enabled = false
	if n := p.Select(critical, prefs); n != nil {
		t.Errorf("disabled notifications must select nothing, got %+v", n)
	}

	prefs = allPrefs()
	prefs.CriticalAlerts = false
	prefs.PromptSuggestions = false
	prefs.LearningTips = false
	if n := p.Select(critical, prefs); n != nil {
		t.Errorf("critical alerts off must not fall back to a warning, got %+v", n)
	}

	prefs = allPrefs()
	prefs.SecurityWarnings = false
	prefs.PromptSuggestions = false
	prefs.LearningTips = false
	if n := p.Select(model.AnalysisResult{RiskLevel: model.RiskHigh}, prefs); n != nil {
		t.Errorf("security warnings off must suppress high risk, got %+v", n)
	}

	if n := p.Select(model.AnalysisResult{RiskLevel: model.RiskLow, PromptQuality: model.QualityGood}, allPrefs()); n != nil {
		t.Errorf("nothing to show for a good low-risk prompt, got %+v", n)
	}
}

func TestPolicySelect_DefaultsHideTips(t *testing.T) {
	p := NewPolicy(rand.NewSource(1))
	prefs := config.DefaultPreferences()

	for i := 0; i < 200; i++ {
		if n := p.Select(tipResult(), prefs); n != nil {
			t.Fatalf("tips are opt-in, got %+v", n)
		}
	}
}

func TestPolicySelect_FrequencyRate(t *testing.T) {
	p := NewPolicy(rand.NewSource(99))
	prefs := allPrefs()
	prefs.LearningTips = false
	prefs.Frequency = config.FrequencyOccasional

	const trials = 5000
	shown := 0
	for i := 0; i < trials; i++ {
		if p.Select(tipResult(), prefs) != nil {
			shown++
		}
	}

	rate := float64(shown) / trials
	if math.Abs(rate-0.3) > 0.04 {
		t.Errorf("expected tip rate near 0.3, got %.3f", rate)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	got    []Notification
	action string
	err    error
	block  bool
}

func (s *recordingSink) Notify(ctx context.Context, n Notification) (string, error) {
	s.mu.Lock()
	s.got = append(s.got, n)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.action, s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestDispatcher_ReportsAction(t *testing.T) {
	sink := &recordingSink{action: ActionUnderstandRisk}

	var (
		mu     sync.Mutex
		action string
	)
	d := NewDispatcher(sink, func(n Notification, a string) {
		mu.Lock()
		action = a
		mu.Unlock()
	})

	d.Dispatch(context.Background(), Notification{ID: "n1", Kind: KindCritical})
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	if action != ActionUnderstandRisk {
		t.Errorf("expected action reported, got %q", action)
	}
}

func TestDispatcher_DoesNotBlock(t *testing.T) {
	sink := &recordingSink{block: true}
	d := NewDispatcher(sink, nil)
	d.SetActionTimeout(50 * time.Millisecond)

	start := time.Now()
	d.Dispatch(context.Background(), Notification{ID: "n1"})
	if time.Since(start) > 20*time.Millisecond {
		t.Error("Dispatch blocked on the sink")
	}
	d.Wait()
	if sink.count() != 1 {
		t.Errorf("expected one delivery, got %d", sink.count())
	}
}

func TestDispatcher_SinkError(t *testing.T) {
	called := false
	d := NewDispatcher(&recordingSink{err: errors.New("bus down")}, func(Notification, string) { called = true })

	d.Dispatch(context.Background(), Notification{ID: "n1"})
	d.Wait()
	if called {
		t.Error("action handler must not run on error")
	}
}

func TestMultiSink(t *testing.T) {
	quiet := &recordingSink{}
	acting := &recordingSink{action: ActionDismiss}
	failing := &recordingSink{err: errors.New("nope")}

	action, err := MultiSink{quiet, failing, acting}.Notify(context.Background(), Notification{ID: "n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ActionDismiss {
		t.Errorf("expected action from acting sink, got %q", action)
	}

	_, err = MultiSink{failing, &recordingSink{err: errors.New("also")}}.Notify(context.Background(), Notification{})
	if err == nil {
		t.Error("expected error when every sink fails")
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	n := Notification{
		Kind:        KindTip,
		Title:       "Make your prompt more specific",
		Message:     "Add context.",
		Suggestions: []model.Suggestion{{ImprovedPrompt: "Act as a [role]."}},
		Actions:     Actions(KindTip),
	}
	action, err := sink.Notify(context.Background(), n)
	if err != nil || action != "" {
		t.Fatalf("unexpected result %q, %v", action, err)
	}

	out := buf.String()
	for _, want := range []string{"Make your prompt more specific", "Act as a [role].", "Show Improved Prompt"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

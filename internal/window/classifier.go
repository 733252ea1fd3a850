/*
Package window decides whether the focused window is an AI interaction worth
analyzing and, once a sample has been analyzed, whether a notification should
be shown for it.

Classification tries three branches in order: browser tabs on a known AI
platform, terminals running an AI CLI, and AI desktop clients. The first
branch that matches wins.
*/
package window

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
)

const (
	// poorPromptNotifyRate is the chance a poor prompt surfaces a notification.
	poorPromptNotifyRate = 1.0 / 3.0

	// fairLearningNotifyRate is the chance a fair prompt with a learning
	// opportunity surfaces a notification.
	fairLearningNotifyRate = 1.0 / 5.0
)

type platformRule struct {
	platform string
	url      string
	pattern  *regexp.Regexp
}

type cliRule struct {
	platform string
	pattern  *regexp.Regexp
}

type appRule struct {
	platform string
	appName  string
	pattern  *regexp.Regexp
}

var (
	browserPattern  = regexp.MustCompile(`(?i)\b(?:google chrome|chrome|chromium|firefox|safari|microsoft edge|edge|brave|opera|vivaldi|arc)\b`)
	terminalPattern = regexp.MustCompile(`(?i)\b(?:terminal|iterm2?|warp|alacritty|kitty|konsole|gnome-terminal|wezterm|hyper|powershell|cmd\.exe|tmux)\b`)
)

// browserURLRules map a URL or domain visible in a browser title to a platform.
var browserURLRules = []platformRule{
	{"ChatGPT", "chatgpt.com", regexp.MustCompile(`(?i)chatgpt\.com|chat\.openai\.com`)},
	{"Claude", "claude.ai", regexp.MustCompile(`(?i)claude\.ai`)},
	{"Gemini", "gemini.google.com", regexp.MustCompile(`(?i)gemini\.google\.com|bard\.google\.com`)},
	{"Copilot", "copilot.microsoft.com", regexp.MustCompile(`(?i)copilot\.microsoft\.com|github\.com/copilot`)},
	{"Perplexity", "perplexity.ai", regexp.MustCompile(`(?i)perplexity\.ai`)},
	{"Poe", "poe.com", regexp.MustCompile(`(?i)\bpoe\.com`)},
	{"HuggingChat", "huggingface.co/chat", regexp.MustCompile(`(?i)huggingface\.co/chat`)},
	{"Character.AI", "character.ai", regexp.MustCompile(`(?i)character\.ai`)},
	{"Mistral", "chat.mistral.ai", regexp.MustCompile(`(?i)chat\.mistral\.ai`)},
	{"DeepSeek", "chat.deepseek.com", regexp.MustCompile(`(?i)chat\.deepseek\.com`)},
	{"Midjourney", "midjourney.com", regexp.MustCompile(`(?i)midjourney\.com`)},
}

// browserNameRules are the fallback when no URL is visible in the tab title.
var browserNameRules = []platformRule{
	{platform: "ChatGPT", pattern: regexp.MustCompile(`(?i)\bchatgpt\b`)},
	{platform: "Claude", pattern: regexp.MustCompile(`(?i)\bclaude\b`)},
	{platform: "Gemini", pattern: regexp.MustCompile(`(?i)\bgemini\b`)},
	{platform: "Copilot", pattern: regexp.MustCompile(`(?i)\bcopilot\b`)},
	{platform: "Perplexity", pattern: regexp.MustCompile(`(?i)\bperplexity\b`)},
	{platform: "Midjourney", pattern: regexp.MustCompile(`(?i)\bmidjourney\b`)},
	{platform: "DeepSeek", pattern: regexp.MustCompile(`(?i)\bdeepseek\b`)},
}

var cliRules = []cliRule{
	{"Claude", regexp.MustCompile(`(?i)(?:^|[\s$>])claude(?:\s|$)|\bclaude code\b`)},
	{"Copilot", regexp.MustCompile(`(?i)\bgh copilot\b`)},
	{"Gemini", regexp.MustCompile(`(?i)(?:^|[\s$>])gemini(?:\s|$)`)},
	{"Codex", regexp.MustCompile(`(?i)(?:^|[\s$>])codex(?:\s|$)`)},
	{"Aider", regexp.MustCompile(`(?i)\baider\b`)},
	{"Ollama", regexp.MustCompile(`(?i)\bollama\s+(?:run|chat)\b`)},
	{"ShellGPT", regexp.MustCompile(`(?i)\bsgpt\b`)},
	{"LLM", regexp.MustCompile(`(?i)(?:^|[\s$>])llm\s+(?:chat|prompt|-m)\b`)},
}

var appRules = []appRule{
	{"ChatGPT", "ChatGPT", regexp.MustCompile(`(?i)^chatgpt\b`)},
	{"Claude", "Claude", regexp.MustCompile(`(?i)^claude\b`)},
	{"Copilot", "Copilot", regexp.MustCompile(`(?i)^(?:microsoft )?copilot\b`)},
	{"Perplexity", "Perplexity", regexp.MustCompile(`(?i)^perplexity\b`)},
	{"Gemini", "Gemini", regexp.MustCompile(`(?i)^gemini\b`)},
	{"LM Studio", "LM Studio", regexp.MustCompile(`(?i)\blm studio\b`)},
	{"Msty", "Msty", regexp.MustCompile(`(?i)^msty\b`)},
	{"Cursor", "Cursor", regexp.MustCompile(`(?i)\bcursor\s*$`)},
}

// Classifier classifies windows and gates notifications. It is safe for
// concurrent use.
type Classifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Classifier drawing from src. A nil src seeds from the clock.
func New(src rand.Source) *Classifier {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Classifier{rng: rand.New(src)}
}

// Classify decides whether a window is an AI interaction.
func (c *Classifier) Classify(windowTitle, extractedText string) model.WindowClassification {
	title := strings.TrimSpace(windowTitle)
	if title == "" {
		return model.WindowClassification{}
	}

	if cls, ok := classifyBrowser(title); ok {
		return cls
	}
	if cls, ok := classifyTerminal(title, extractedText); ok {
		return cls
	}
	if cls, ok := classifyDesktopApp(title); ok {
		return cls
	}
	return model.WindowClassification{}
}

func classifyBrowser(title string) (model.WindowClassification, bool) {
	browser := browserPattern.FindString(title)
	if browser == "" {
		return model.WindowClassification{}, false
	}

	for _, rule := range browserURLRules {
		if rule.pattern.MatchString(title) {
			return model.WindowClassification{
				IsAIWindow: true,
				Platform:   rule.platform,
				URL:        rule.url,
				AppName:    browser,
			}, true
		}
	}
	for _, rule := range browserNameRules {
		if rule.pattern.MatchString(title) {
			return model.WindowClassification{
				IsAIWindow: true,
				Platform:   rule.platform,
				AppName:    browser,
			}, true
		}
	}
	return model.WindowClassification{}, false
}

func classifyTerminal(title, text string) (model.WindowClassification, bool) {
	terminal := terminalPattern.FindString(title)
	if terminal == "" {
		return model.WindowClassification{}, false
	}

	// Terminal titles usually carry the running command, so both are checked.
	haystack := title + "\n" + text
	for _, rule := range cliRules {
		if rule.pattern.MatchString(haystack) {
			return model.WindowClassification{
				IsAIWindow: true,
				Platform:   rule.platform,
				AppName:    terminal,
			}, true
		}
	}
	return model.WindowClassification{}, false
}

func classifyDesktopApp(title string) (model.WindowClassification, bool) {
	for _, rule := range appRules {
		if rule.pattern.MatchString(title) {
			return model.WindowClassification{
				IsAIWindow: true,
				Platform:   rule.platform,
				AppName:    rule.appName,
			}, true
		}
	}
	return model.WindowClassification{}, false
}

// ShouldNotify decides whether an analyzed sample deserves a notification.
// Risky or sensitive results always notify; prompt-quality results notify
// with a fixed probability so coaching does not become noise.
func (c *Classifier) ShouldNotify(cls model.WindowClassification, result model.AnalysisResult) bool {
	if !cls.IsAIWindow {
		return false
	}

	switch {
	case result.RiskLevel == model.RiskCritical || result.RiskLevel == model.RiskHigh:
		return true
	case result.SensitiveDataDetected:
		return true
	case result.PromptQuality == model.QualityPoor:
		return c.draw() < poorPromptNotifyRate
	case result.LearningOpportunity != nil && result.PromptQuality == model.QualityFair:
		return c.draw() < fairLearningNotifyRate
	default:
		return false
	}
}

func (c *Classifier) draw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

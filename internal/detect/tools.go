package detect

import (
	"regexp"
	"strings"
)

// AI tool identifiers returned by DetectAITool.
const (
	ToolChatGPT     = "chatgpt"
	ToolClaude      = "claude"
	ToolGemini      = "gemini"
	ToolCopilot     = "copilot"
	ToolMidjourney  = "midjourney"
	ToolPerplexity  = "perplexity"
	ToolPoe         = "poe"
	ToolHuggingChat = "huggingchat"
	ToolCharacterAI = "characterai"
	ToolMistral     = "mistral"
	ToolDeepSeek    = "deepseek"
)

type toolPattern struct {
	id      string
	pattern *regexp.Regexp
}

// aiToolPatterns is evaluated in order; the first match wins.
var aiToolPatterns = []toolPattern{
	{ToolChatGPT, regexp.MustCompile(`(?i)chatgpt|chat\.openai\.com|\bopenai\b`)},
	{ToolClaude, regexp.MustCompile(`(?i)\bclaude\b|claude\.ai|\banthropic\b`)},
	{ToolGemini, regexp.MustCompile(`(?i)\bgemini\b|gemini\.google\.com|\bbard\b`)},
	{ToolCopilot, regexp.MustCompile(`(?i)\bcopilot\b`)},
	{ToolMidjourney, regexp.MustCompile(`(?i)midjourney`)},
	{ToolPerplexity, regexp.MustCompile(`(?i)perplexity`)},
	{ToolPoe, regexp.MustCompile(`(?i)\bpoe\.com\b`)},
	{ToolHuggingChat, regexp.MustCompile(`(?i)huggingchat|huggingface\.co/chat`)},
	{ToolCharacterAI, regexp.MustCompile(`(?i)character\.ai|characterai`)},
	{ToolMistral, regexp.MustCompile(`(?i)\bmistral\b|chat\.mistral\.ai|\ble chat\b`)},
	{ToolDeepSeek, regexp.MustCompile(`(?i)deepseek`)},
}

// DetectAITool returns the first tool whose pattern matches the window label
// or text, or "" when nothing matches.
func DetectAITool(windowLabel, text string) string {
	haystack := strings.TrimSpace(windowLabel + " " + text)
	if haystack == "" {
		return ""
	}

	for _, tp := range aiToolPatterns {
		if tp.pattern.MatchString(haystack) {
			return tp.id
		}
	}
	return ""
}

// ToolDisplayName returns a human-readable product name for a tool id.
func ToolDisplayName(id string) string {
	switch id {
	case ToolChatGPT:
		return "ChatGPT"
	case ToolClaude:
		return "Claude"
	case ToolGemini:
		return "Gemini"
	case ToolCopilot:
		return "Copilot"
	case ToolMidjourney:
		return "Midjourney"
	case ToolPerplexity:
		return "Perplexity"
	case ToolPoe:
		return "Poe"
	case ToolHuggingChat:
		return "HuggingChat"
	case ToolCharacterAI:
		return "Character.AI"
	case ToolMistral:
		return "Mistral"
	case ToolDeepSeek:
		return "DeepSeek"
	case "":
		return "an AI tool"
	default:
		return id
	}
}

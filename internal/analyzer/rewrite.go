package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/khanglvm/promptwatch/internal/detect"
)

// FailureMode names why a prompt was judged under-specified.
type FailureMode string

const (
	FailureBareRequest FailureMode = "bare-request"
	FailureTooShort    FailureMode = "too-short"
	FailureVagueHelp   FailureMode = "vague-help"
	FailureCodeRequest FailureMode = "code-request"
	FailureGeneric     FailureMode = "generic"
)

// PromptRewrite is a templated rewrite for an under-specified prompt.
type PromptRewrite struct {
	FailureMode      FailureMode `json:"failureMode"`
	ImprovedPrompt   string      `json:"improvedPrompt"`
	LearningResource string      `json:"learningResource"`
}

// DefaultLearningResource is used when no vendor can be determined.
const DefaultLearningResource = "https://www.promptingguide.ai/introduction/tips"

var vendorResources = map[string]string{
	detect.ToolChatGPT:    "https://platform.openai.com/docs/guides/prompt-engineering",
	detect.ToolClaude:     "https://docs.anthropic.com/en/docs/build-with-claude/prompt-engineering/overview",
	detect.ToolGemini:     "https://ai.google.dev/gemini-api/docs/prompting-strategies",
	detect.ToolCopilot:    "https://docs.github.com/en/copilot/using-github-copilot/prompt-engineering-for-github-copilot",
	detect.ToolMidjourney: "https://docs.midjourney.com/docs/prompts",
	detect.ToolPerplexity: "https://www.perplexity.ai/hub/faq",
}

var (
	bareRequestPattern = regexp.MustCompile(`(?i)^(?:help|fix|write|do|make|explain|create|show|tell|code|summarize|what|how|why|when|where|who|which)\s*[.!?]*$`)
	vagueHelpPattern   = regexp.MustCompile(`(?i)\b(?:help me|can you help|i need help|assist me|any ideas|what should i do|make it better)\b`)
	codeTermsPattern   = regexp.MustCompile(`(?i)\b(?:code|function|script|bug|error|program|regex|sql|query|class|method|api|compile|debug)\b`)
)

// shortCodeRequestLimit bounds how long a code request can be and still be
// considered under-specified.
const shortCodeRequestLimit = 80

var rewriteTemplates = map[FailureMode]string{
	FailureBareRequest: "I need help with [specific topic/task]. My goal is [desired outcome]. Please provide [type of response: steps, example, or explanation].",
	FailureTooShort:    "Please [action] [specific subject] so that [purpose]. Include [details you need] and keep the response [length/format].",
	FailureVagueHelp:   "I'm working on [project/context] and I'm stuck on [specific problem]. I've already tried [what you tried]. Could you help me [specific request]?",
	FailureCodeRequest: "Write a [language] function that [specific behavior]. Input: [input format]. Output: [expected output]. Constraints: [performance/style requirements]. Include comments and an example call.",
	FailureGeneric:     "Act as a [role/expert]. Context: [background information]. Task: [specific request]. Format: [desired output format]. Constraints: [limits or things to avoid].",
}

// ClassifyFailureMode determines the prompt's failure mode. Checks run in
// order and the first match wins.
func ClassifyFailureMode(prompt string) FailureMode {
	trimmed := strings.TrimSpace(prompt)
	switch {
	case bareRequestPattern.MatchString(trimmed):
		return FailureBareRequest
	case utf8.RuneCountInString(trimmed) < 10:
		return FailureTooShort
	case vagueHelpPattern.MatchString(trimmed):
		return FailureVagueHelp
	case utf8.RuneCountInString(trimmed) <= shortCodeRequestLimit && codeTermsPattern.MatchString(trimmed):
		return FailureCodeRequest
	default:
		return FailureGeneric
	}
}

// AdvisePromptRewrite returns the template rewrite for a prompt together
// with a learning resource chosen by the detected tool, the tool inferred
// from the prompt itself, or the default resource.
func AdvisePromptRewrite(prompt, aiTool string) PromptRewrite {
	mode := ClassifyFailureMode(prompt)
	return PromptRewrite{
		FailureMode:      mode,
		ImprovedPrompt:   rewriteTemplates[mode],
		LearningResource: learningResourceFor(aiTool, prompt),
	}
}

func learningResourceFor(aiTool, prompt string) string {
	vendor := aiTool
	if vendor == "" {
		vendor = detect.DetectAITool("", prompt)
	}
	if url, ok := vendorResources[vendor]; ok {
		return url
	}
	return DefaultLearningResource
}

func isCodeRelated(text string) bool {
	return codeTermsPattern.MatchString(text)
}

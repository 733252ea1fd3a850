package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/khanglvm/promptwatch/internal/model"
)

var (
	// excellentIndicators: persona cues, constraint language, format
	// directives, negative constraints. Any one short-circuits to excellent.
	excellentIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:act as|you are an? (?:expert|senior|professional|experienced)|pretend (?:to be|you are)|role[- ]?play|as an? (?:expert|senior|professional))\b`),
		regexp.MustCompile(`(?i)\b(?:requirements?|constraints?|must (?:include|be|have|use|not)|specifications?|acceptance criteria)\b`),
		regexp.MustCompile(`(?i)\b(?:format (?:it |the output |the response )?as|output format|respond (?:only )?(?:in|with) (?:json|markdown|yaml|a table|bullet)|in (?:json|markdown|yaml) format|as a (?:table|bulleted list|numbered list))\b`),
		regexp.MustCompile(`(?i)\b(?:do not|don't|avoid|never) (?:include|use|mention|add|exceed|change)\b`),
	}

	// goodIndicators are counted; each pattern contributes at most once.
	goodIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:context|background|because|i am working on|i'm working on|my goal is|the goal is|for my (?:project|team|company|class))\b`),
		regexp.MustCompile(`(?i)\b(?:step[- ]by[- ]step|walk me through|first,? .+ then|break (?:it|this) down)\b`),
		regexp.MustCompile(`(?i)\b(?:please|could you|can you|would you)\b.{15,}[.?!]`),
	}

	// poorIndicators: a single common verb, very short text, or a bare
	// question word.
	poorIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:help|fix|write|do|make|explain|create|show|tell|code|summarize)\s*[.!?]*$`),
		regexp.MustCompile(`(?s)^.{0,10}$`),
		regexp.MustCompile(`(?i)^(?:what|how|why|when|where|who|which)\s*\??$`),
	}
)

// fairLengthThreshold is the length above which an unclassified prompt is
// considered fair rather than poor.
const fairLengthThreshold = 50

// AssessPromptQuality rates a prompt with a strict priority cascade: the
// excellent check first, then the good-indicator count, then poor
// indicators, then a length fallback.
func AssessPromptQuality(text string) model.PromptQuality {
	trimmed := strings.TrimSpace(text)

	for _, p := range excellentIndicators {
		if p.MatchString(trimmed) {
			return model.QualityExcellent
		}
	}

	good := 0
	for _, p := range goodIndicators {
		if p.MatchString(trimmed) {
			good++
		}
	}
	if good >= 2 {
		return model.QualityGood
	}
	if good == 1 {
		return model.QualityFair
	}

	for _, p := range poorIndicators {
		if p.MatchString(trimmed) {
			return model.QualityPoor
		}
	}

	if utf8.RuneCountInString(trimmed) > fairLengthThreshold {
		return model.QualityFair
	}
	return model.QualityPoor
}

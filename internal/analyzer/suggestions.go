package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/khanglvm/promptwatch/internal/detect"
	"github.com/khanglvm/promptwatch/internal/model"
)

var spreadsheetPattern = regexp.MustCompile(`(?i)\b(?:spreadsheets?|csv|excel|xlsx|google sheets|pivot table)\b`)

const (
	localToolsResource = "https://ollama.com/library"
	copilotResource    = "https://docs.github.com/en/copilot/quickstart"
	dataSafetyResource = "https://owasp.org/www-project-top-10-for-large-language-model-applications/"
)

// GenerateSuggestions builds the ordered suggestion list and the single
// learning opportunity for an analyzed sample. Every rule whose guard holds
// appends; the learning opportunity is first-match.
func GenerateSuggestions(aiTool string, sensitive detect.SensitiveDataResult, quality model.PromptQuality, text string) ([]model.Suggestion, *model.LearningOpportunity) {
	suggestions := []model.Suggestion{}
	exposed := sensitive.Detected && aiTool != ""
	toolName := detect.ToolDisplayName(aiTool)

	if exposed {
		suggestions = append(suggestions,
			model.Suggestion{
				Type:        model.SuggestionSecurity,
				Title:       "Sensitive data shared with " + toolName,
				Description: fmt.Sprintf("Detected %s in content visible to %s. Remove or mask it before sending.", strings.Join(sensitive.Types, ", "), toolName),
				Actionable:  true,
				Priority:    model.PriorityHigh,
			},
			model.Suggestion{
				Type:             model.SuggestionAlternative,
				Title:            "Use a local AI tool for sensitive content",
				Description:      "A locally hosted model (for example Ollama or LM Studio) keeps confidential data on this device.",
				Actionable:       true,
				Priority:         model.PriorityMedium,
				LearningResource: localToolsResource,
			},
		)
	}

	switch quality {
	case model.QualityPoor:
		rw := AdvisePromptRewrite(text, aiTool)
		suggestions = append(suggestions, model.Suggestion{
			Type:             model.SuggestionQuality,
			Title:            "Make your prompt more specific",
			Description:      "Short or vague prompts lead to generic answers. Add context, the goal and the format you expect.",
			Actionable:       true,
			Priority:         model.PriorityHigh,
			ImprovedPrompt:   rw.ImprovedPrompt,
			LearningResource: rw.LearningResource,
		})
	case model.QualityFair:
		rw := AdvisePromptRewrite(text, aiTool)
		suggestions = append(suggestions, model.Suggestion{
			Type:             model.SuggestionQuality,
			Title:            "Add structure to your prompt",
			Description:      "State constraints and the output format to get a more precise answer.",
			Actionable:       true,
			Priority:         model.PriorityMedium,
			ImprovedPrompt:   rw.ImprovedPrompt,
			LearningResource: rw.LearningResource,
		})
	}

	if spreadsheetPattern.MatchString(text) {
		suggestions = append(suggestions, model.Suggestion{
			Type:        model.SuggestionEfficiency,
			Title:       "Analyze spreadsheet data with dedicated tools",
			Description: "Spreadsheet formulas, pivot tables or a data notebook are faster and keep the data local.",
			Actionable:  true,
			Priority:    model.PriorityLow,
		})
	}

	return suggestions, selectLearningOpportunity(aiTool, exposed, quality, text)
}

func selectLearningOpportunity(aiTool string, exposed bool, quality model.PromptQuality, text string) *model.LearningOpportunity {
	switch {
	case exposed:
		return &model.LearningOpportunity{
			Kind:        model.LearningSecurity,
			Title:       "Safe AI usage",
			Description: "Learn which kinds of data should never be pasted into AI tools and how to anonymize examples.",
			ResourceURL: dataSafetyResource,
		}
	case quality == model.QualityPoor:
		return &model.LearningOpportunity{
			Kind:        model.LearningPrompting,
			Title:       "Prompting fundamentals",
			Description: "Clear prompts state a role, context, task and expected format.",
			ResourceURL: learningResourceFor(aiTool, text),
		}
	case quality == model.QualityFair:
		return &model.LearningOpportunity{
			Kind:        model.LearningPrompting,
			Title:       "Level up your prompts",
			Description: "Adding constraints and examples turns a decent prompt into a precise one.",
			ResourceURL: learningResourceFor(aiTool, text),
		}
	case aiTool == detect.ToolChatGPT && isCodeRelated(text):
		return &model.LearningOpportunity{
			Kind:        model.LearningTooling,
			Title:       "Try an AI pair programmer",
			Description: "GitHub Copilot works inside your editor and sees the surrounding code.",
			ResourceURL: copilotResource,
		}
	default:
		return nil
	}
}

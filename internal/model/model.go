/*
Package model defines the value types that flow through the monitoring
pipeline: window classifications, OCR output, analysis results and the
suggestions attached to them.

Values are created once per analyzed sample and never mutated afterwards.
None of them carry raw screen text except ExtractedText, which is consumed
within a single tick and never persisted.
*/
package model

import "time"

// RiskLevel is the four-tier severity of a single analyzed sample.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// PromptQuality is the heuristic rating of how well-specified a prompt is.
type PromptQuality string

const (
	QualityPoor      PromptQuality = "poor"
	QualityFair      PromptQuality = "fair"
	QualityGood      PromptQuality = "good"
	QualityExcellent PromptQuality = "excellent"
)

// SuggestionType categorizes a coaching suggestion.
type SuggestionType string

const (
	SuggestionSecurity    SuggestionType = "security"
	SuggestionEfficiency  SuggestionType = "efficiency"
	SuggestionQuality     SuggestionType = "quality"
	SuggestionAlternative SuggestionType = "alternative"
)

// Priority ranks suggestions for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ContentType is a coarse description of what the analyzed text contains.
type ContentType string

const (
	ContentText ContentType = "text"
	ContentCode ContentType = "code"
	ContentData ContentType = "data"
)

// Suggestion is one piece of coaching attached to an AnalysisResult.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Actionable  bool           `json:"actionable"`
	Priority    Priority       `json:"priority"`

	// ImprovedPrompt is a template rewrite with literal placeholders.
	ImprovedPrompt string `json:"improvedPrompt,omitempty"`

	// LearningResource is an external URL with prompting guidance.
	LearningResource string `json:"learningResource,omitempty"`
}

// LearningKind tags the reason a learning opportunity was selected.
type LearningKind string

const (
	LearningSecurity  LearningKind = "security"
	LearningPrompting LearningKind = "prompting"
	LearningTooling   LearningKind = "tooling"
)

// LearningOpportunity is the single coaching tip surfaced with a result.
type LearningOpportunity struct {
	Kind        LearningKind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ResourceURL string       `json:"resourceUrl,omitempty"`
}

// AnalysisResult is the outcome of analyzing one text sample.
type AnalysisResult struct {
	Timestamp             time.Time            `json:"timestamp"`
	RiskLevel             RiskLevel            `json:"riskLevel"`
	SensitiveDataDetected bool                 `json:"sensitiveDataDetected"`
	SensitiveDataTypes    []string             `json:"sensitiveDataTypes"`
	AIToolDetected        string               `json:"aiToolDetected,omitempty"`
	PromptQuality         PromptQuality        `json:"promptQuality"`
	Suggestions           []Suggestion         `json:"suggestions"`
	LearningOpportunity   *LearningOpportunity `json:"learningOpportunity,omitempty"`

	// ContentHash is the SHA-256 of the analyzed text; the text itself is
	// never retained.
	ContentHash string      `json:"contentHash"`
	ContentType ContentType `json:"contentType"`
}

// HasSensitiveType reports whether the result includes the given category.
func (r AnalysisResult) HasSensitiveType(category string) bool {
	for _, t := range r.SensitiveDataTypes {
		if t == category {
			return true
		}
	}
	return false
}

// HasSuggestion reports whether any suggestion of the given type is present.
func (r AnalysisResult) HasSuggestion(kind SuggestionType) bool {
	for _, s := range r.Suggestions {
		if s.Type == kind {
			return true
		}
	}
	return false
}

// WindowClassification describes whether a window is an AI interaction.
type WindowClassification struct {
	IsAIWindow bool   `json:"isAIWindow"`
	Platform   string `json:"platform,omitempty"`
	URL        string `json:"url,omitempty"`
	AppName    string `json:"appName,omitempty"`
}

// Region is a bounding box of recognized text on screen.
type Region struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ExtractedText is OCR output for one capture. Confidence is advisory.
type ExtractedText struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Regions    []Region  `json:"regions,omitempty"`
}

/*
Package analyzer turns a single text sample into an AnalysisResult.

It orchestrates sensitive-data detection, AI-tool detection, prompt-quality
scoring, risk calculation and suggestion generation. The analyzer holds no
per-sample state and is safe for concurrent use.
*/
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/khanglvm/promptwatch/internal/detect"
	"github.com/khanglvm/promptwatch/internal/model"
)

var codeContentPattern = regexp.MustCompile("(?m)(?:^\\s*(?:func|def|class|import|package|const|let|var|public|private)\\s|[{};]\\s*$|```)")

// Analyzer produces AnalysisResults. The zero value is not usable; call New.
type Analyzer struct {
	now func() time.Time
}

// New creates an Analyzer using the wall clock.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewWithClock creates an Analyzer with a custom clock (for tests).
func NewWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze classifies text seen in the window labelled windowLabel.
func (a *Analyzer) Analyze(text, windowLabel string) model.AnalysisResult {
	sensitive := detect.DetectSensitiveData(text)
	tool := detect.DetectAITool(windowLabel, text)
	quality := detect.AssessPromptQuality(text)
	suggestions, opportunity := GenerateSuggestions(tool, sensitive, quality, text)

	return model.AnalysisResult{
		Timestamp:             a.now(),
		RiskLevel:             CalculateRisk(tool, sensitive.Types),
		SensitiveDataDetected: sensitive.Detected,
		SensitiveDataTypes:    sensitive.Types,
		AIToolDetected:        tool,
		PromptQuality:         quality,
		Suggestions:           suggestions,
		LearningOpportunity:   opportunity,
		ContentHash:           HashContent(text),
		ContentType:           classifyContent(text),
	}
}

// HashContent returns the hex SHA-256 of text, or "" for empty text.
func HashContent(text string) string {
	if text == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

func classifyContent(text string) model.ContentType {
	switch {
	case codeContentPattern.MatchString(text):
		return model.ContentCode
	case spreadsheetPattern.MatchString(text):
		return model.ContentData
	default:
		return model.ContentText
	}
}

/*
Package detect implements the pure text classifiers used by the analyzer:
sensitive-data detection, AI-tool detection, prompt-quality assessment and
content sanitization.

All classifiers are ordered rule tables evaluated top to bottom. They never
return errors; a miss is a negative result.
*/
package detect

import "regexp"

// Sensitive-data categories, in table order.
const (
	CategorySSN           = "ssn"
	CategoryCreditCard    = "creditCard"
	CategoryEmail         = "email"
	CategoryPhone         = "phone"
	CategoryAPIKey        = "apiKey"
	CategoryPassword      = "password"
	CategoryFinancialData = "financialData"
	CategoryCustomerData  = "customerData"
)

// SensitiveDataResult lists the categories found in a text.
type SensitiveDataResult struct {
	Detected bool     `json:"detected"`
	Types    []string `json:"types"`
}

type sensitiveRule struct {
	category string
	patterns []*regexp.Regexp
}

var (
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	creditCardPattern = regexp.MustCompile(`\b(?:\d{4}[- ]?){3}\d{4}\b`)

	// passwordPattern captures the label and separator so Sanitize can keep
	// them and replace only the value.
	passwordPattern = regexp.MustCompile(`(?i)\b(password|passwd|pwd|passcode)(\s*[:=]\s*)\S+`)

	// apiKeyPatterns are vendor-specific key shapes; any match counts as apiKey.
	apiKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{32,}`),
		regexp.MustCompile(`sk-(?:proj-)?[A-Za-z0-9]{32,}`),
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`),
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
		regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}\b`),
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]{20,}=*`),
		regexp.MustCompile(`(?i)\bapi[_-]?key\s*[:=]\s*['"]?[A-Za-z0-9_-]{16,}`),
	}
)

var sensitiveRules = []sensitiveRule{
	{category: CategorySSN, patterns: []*regexp.Regexp{ssnPattern}},
	{category: CategoryCreditCard, patterns: []*regexp.Regexp{creditCardPattern}},
	{category: CategoryEmail, patterns: []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	}},
	{category: CategoryPhone, patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\b\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`),
	}},
	{category: CategoryAPIKey, patterns: apiKeyPatterns},
	{category: CategoryPassword, patterns: []*regexp.Regexp{passwordPattern}},
	{category: CategoryFinancialData, patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:revenue|profit margin|salary|salaries|bank account|routing number|iban|balance sheet|financial statements?|quarterly earnings)\b`),
	}},
	{category: CategoryCustomerData, patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:customer (?:list|data|records?|database|emails?)|client (?:list|data|records?)|user database|personal information|patient records?)\b`),
	}},
}

// DetectSensitiveData scans text against the category table. A category is
// reported if any of its patterns matches anywhere; categories may overlap.
func DetectSensitiveData(text string) SensitiveDataResult {
	result := SensitiveDataResult{Types: []string{}}
	if text == "" {
		return result
	}

	for _, rule := range sensitiveRules {
		for _, p := range rule.patterns {
			if p.MatchString(text) {
				result.Types = append(result.Types, rule.category)
				break
			}
		}
	}

	result.Detected = len(result.Types) > 0
	return result
}

// SensitiveCategories returns the category names in table order.
func SensitiveCategories() []string {
	names := make([]string, len(sensitiveRules))
	for i, rule := range sensitiveRules {
		names[i] = rule.category
	}
	return names
}

var complianceByCategory = map[string]string{
	CategorySSN:           "PII",
	CategoryEmail:         "PII",
	CategoryPhone:         "PII",
	CategoryCreditCard:    "PCI-DSS",
	CategoryFinancialData: "SOX",
	CategoryCustomerData:  "GDPR",
	CategoryAPIKey:        "CREDENTIALS",
	CategoryPassword:      "CREDENTIALS",
}

// ComplianceFlags maps detected categories to the compliance regimes they
// touch, deduplicated and in first-seen order. Unknown categories are ignored.
func ComplianceFlags(types []string) []string {
	flags := []string{}
	seen := make(map[string]bool)
	for _, t := range types {
		flag, ok := complianceByCategory[t]
		if !ok || seen[flag] {
			continue
		}
		seen[flag] = true
		flags = append(flags, flag)
	}
	return flags
}

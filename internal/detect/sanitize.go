package detect

import "unicode/utf8"

// Placeholders substituted for redacted spans.
const (
	RedactedAPIKey     = "[REDACTED_API_KEY]"
	RedactedSSN        = "[REDACTED_SSN]"
	RedactedCreditCard = "[REDACTED_CARD]"
	RedactedPassword   = "[REDACTED_PASSWORD]"
	TruncationMarker   = "... [truncated]"
)

// MaxSanitizedLength is the rune limit of sanitized content.
const MaxSanitizedLength = 500

// Sanitize redacts API keys, SSNs, card numbers and password values and truncates the result
// to MaxSanitizedLength runes. It is applied to anything stored or exported.
func Sanitize(content string) string {
	out := content
	for _, p := range apiKeyPatterns {
		out = p.ReplaceAllString(out, RedactedAPIKey)
	}
	out = ssnPattern.ReplaceAllString(out, RedactedSSN)
	out = creditCardPattern.ReplaceAllString(out, RedactedCreditCard)
	out = passwordPattern.ReplaceAllString(out, "${1}${2}"+RedactedPassword)

	if utf8.RuneCountInString(out) > MaxSanitizedLength {
		runes := []rune(out)
		out = string(runes[:MaxSanitizedLength]) + TruncationMarker
	}
	return out
}

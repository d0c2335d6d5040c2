package llm

import "strings"

// ErrorType categorizes LLM errors for metrics and logs.
type ErrorType string

const (
	ErrorTypeUnknown    ErrorType = "unknown"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeOverloaded ErrorType = "overloaded"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeBilling    ErrorType = "billing"
	ErrorTypeTimeout    ErrorType = "timeout"
)

// errorPatterns is checked in order; billing before auth because quota
// errors often also mention the key.
var errorPatterns = []struct {
	typ      ErrorType
	patterns []string
}{
	{ErrorTypeRateLimit, []string{"429", "rate_limit", "rate limit", "too many requests", "requests per minute"}},
	{ErrorTypeOverloaded, []string{"overloaded", "529", "server is busy", "temporarily unavailable"}},
	{ErrorTypeBilling, []string{"insufficient_quota", "exceeded your current quota", "billing", "credit balance"}},
	{ErrorTypeAuth, []string{"401", "403", "invalid api key", "invalid_api_key", "incorrect api key", "authentication", "unauthorized"}},
	{ErrorTypeTimeout, []string{"deadline exceeded", "timeout", "timed out"}},
}

// ClassifyError determines the error type from an error message.
// Returns ErrorTypeUnknown if the error doesn't match any known pattern.
func ClassifyError(msg string) ErrorType {
	if msg == "" {
		return ErrorTypeUnknown
	}
	lower := strings.ToLower(msg)
	for _, ep := range errorPatterns {
		for _, p := range ep.patterns {
			if strings.Contains(lower, p) {
				return ep.typ
			}
		}
	}
	return ErrorTypeUnknown
}

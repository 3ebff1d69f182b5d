package llm

import (
	"errors"
	"fmt"
)

// ErrorType distinguishes the failure classes the chat client can surface.
type ErrorType string

const (
	// ErrorTypeRateLimit is returned after retries with backoff are exhausted.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeTokenBudget is returned immediately, without retrying, when
	// the input exceeds the model's context budget.
	ErrorTypeTokenBudget ErrorType = "token_budget"

	// ErrorTypeAPI covers every other request failure.
	ErrorTypeAPI ErrorType = "api"
)

// Error is a typed chat-client failure.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm %s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm %s error: %s", e.Type, e.Message)
}

// NewRateLimitError creates a rate-limit error.
func NewRateLimitError(message string) *Error {
	return &Error{Type: ErrorTypeRateLimit, Message: message, StatusCode: 429}
}

// NewTokenBudgetError creates a token-budget error.
func NewTokenBudgetError(message string) *Error {
	return &Error{Type: ErrorTypeTokenBudget, Message: message}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string, statusCode int) *Error {
	return &Error{Type: ErrorTypeAPI, Message: message, StatusCode: statusCode}
}

// IsRateLimit reports whether err is a rate-limit error.
func IsRateLimit(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Type == ErrorTypeRateLimit
}

// IsTokenBudget reports whether err is a token-budget error.
func IsTokenBudget(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Type == ErrorTypeTokenBudget
}

// Package errors defines the application error taxonomy and its handling policies.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Catalog keys of the user-facing messages attached to application errors.
const (
	KeyValidation      = "errors.validation"
	KeyDatabase        = "errors.database"
	KeyExternalCommand = "errors.external_command"
	KeyState           = "errors.state"
	KeyRateLimit       = "errors.rate_limit"
	KeyEmptyPool       = "errors.empty_pool"
	KeyUnknown         = "errors.unknown"
)

type AppError struct {
	Code           string
	Message        string
	UserMessageKey string
	Severity       Severity
	Retryable      bool
	cause          error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:           "E100",
		Message:        msg,
		UserMessageKey: KeyValidation,
		Severity:       SeverityLow,
		Retryable:      false,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:           "E200",
		Message:        fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessageKey: KeyDatabase,
		Severity:       SeverityHigh,
		Retryable:      true,
		cause:          cause,
	}
}

func NewExternalCommandError(command string, cause error) *AppError {
	return &AppError{
		Code:           "E300",
		Message:        fmt.Sprintf("External command error: %s", command),
		UserMessageKey: KeyExternalCommand,
		Severity:       SeverityMedium,
		Retryable:      false,
		cause:          cause,
	}
}

func NewStateError(msg string, cause error) *AppError {
	return &AppError{
		Code:           "E400",
		Message:        msg,
		UserMessageKey: KeyState,
		Severity:       SeverityMedium,
		Retryable:      false,
		cause:          cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:           "E500",
		Message:        fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessageKey: KeyRateLimit,
		Severity:       SeverityLow,
		Retryable:      false,
	}
}

// NewEmptyPoolError reports a request that needs at least one stored joke.
func NewEmptyPoolError() *AppError {
	return &AppError{
		Code:           "E600",
		Message:        "joke pool is empty",
		UserMessageKey: KeyEmptyPool,
		Severity:       SeverityLow,
		Retryable:      false,
	}
}

package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries the machine-readable code, the log message, and the
// message shown to the user. Every flow-terminating error is one of these.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
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

// NewValidationError reports input rejected before any external call was made.
func NewValidationError(userMsg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     fmt.Sprintf("validation failed: %s", userMsg),
		UserMessage: userMsg,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewServiceError wraps a failure from the session service. When the service
// supplied its own error message it becomes the user-facing text, otherwise
// a generic failure message is used.
func NewServiceError(operation, serviceMsg string, cause error) *AppError {
	userMsg := serviceMsg
	if userMsg == "" {
		userMsg = "The service is temporarily unavailable. Please try again later."
	}

	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("session service %s failed: %s", operation, serviceMsg),
		UserMessage: userMsg,
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

// NewTimeoutError reports that a flow expired with no qualifying input.
func NewTimeoutError() *AppError {
	return &AppError{
		Code:        "E400",
		Message:     "flow timed out waiting for user input",
		UserMessage: "Session creation timed out. Please start again with /start",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewTransportError wraps a best-effort send/edit/delete failure. These are
// logged and swallowed at the point of occurrence, never surfaced.
func NewTransportError(operation string, cause error) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("transport %s failed", operation),
		UserMessage: "",
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       cause,
	}
}

// NewInternalError reports an unexpected failure inside the bot itself.
func NewInternalError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E900",
		Message:     fmt.Sprintf("internal error: %s", underlyingMsg),
		UserMessage: "Something went wrong. Please try again with /start",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

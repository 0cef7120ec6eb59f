package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a provider-neutral LLM error.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	StatusCode  int
	Payload     []byte // Request body that produced the error, if any
	Body        []byte // Response body, if any
	ProviderErr error  // Original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeDuplicateToolName     ErrorType = "duplicate_tool_name"
	ErrorTypeContextLengthExceeded ErrorType = "context_length_exceeded"
	ErrorTypeServer                ErrorType = "server"
	ErrorTypeRequestFailed         ErrorType = "request_failed"
	ErrorTypeMissingUsageData      ErrorType = "missing_usage_data"
	ErrorTypeInvalidResponse       ErrorType = "invalid_response"
	ErrorTypeProvider              ErrorType = "provider"
	ErrorTypeNetwork               ErrorType = "network"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// statusText renders a status code with its reason phrase, e.g. "429 Too Many Requests".
func statusText(status int) string {
	return strings.TrimSpace(fmt.Sprintf("%d %s", status, http.StatusText(status)))
}

func hasErrorType(err error, t ErrorType) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == t
	}
	return false
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// IsServerError checks if an error is a retryable server-side failure (429 or 5xx).
func IsServerError(err error) bool {
	return hasErrorType(err, ErrorTypeServer)
}

// IsRequestFailed checks if an error is a non-retryable request failure.
func IsRequestFailed(err error) bool {
	return hasErrorType(err, ErrorTypeRequestFailed)
}

// IsDuplicateToolName checks if an error reports a repeated tool name.
func IsDuplicateToolName(err error) bool {
	return hasErrorType(err, ErrorTypeDuplicateToolName)
}

// IsMissingUsageData checks if an error reports a response without usage.
func IsMissingUsageData(err error) bool {
	return hasErrorType(err, ErrorTypeMissingUsageData)
}

// IsContextLengthExceeded checks if an error reports an oversized prompt.
func IsContextLengthExceeded(err error) bool {
	if hasErrorType(err, ErrorTypeContextLengthExceeded) {
		return true
	}
	var clErr *ContextLengthExceededError
	return errors.As(err, &clErr)
}

// NewDuplicateToolNameError reports a tool name that appears more than once.
func NewDuplicateToolNameError(name string) *Error {
	return &Error{
		Type:    ErrorTypeDuplicateToolName,
		Message: "Duplicate tool name: " + name,
	}
}

// NewServerError creates a retryable error for 429 and 5xx responses.
func NewServerError(status int, body []byte) *Error {
	return &Error{
		Type:       ErrorTypeServer,
		Message:    "Server error: " + statusText(status),
		Retryable:  true,
		StatusCode: status,
		Body:       body,
	}
}

// NewRequestFailedError creates a non-retryable error carrying the request payload.
func NewRequestFailedError(status int, payload, body []byte) *Error {
	return &Error{
		Type:       ErrorTypeRequestFailed,
		Message:    fmt.Sprintf("Request failed: %s\nPayload: %s", statusText(status), payload),
		StatusCode: status,
		Payload:    payload,
		Body:       body,
	}
}

// NewMissingUsageDataError reports a response without a usage object.
func NewMissingUsageDataError() *Error {
	return &Error{
		Type:    ErrorTypeMissingUsageData,
		Message: "No usage data in response",
	}
}

// NewContextLengthError wraps a classified context length error.
func NewContextLengthError(cause *ContextLengthExceededError, status int) *Error {
	return &Error{
		Type:        ErrorTypeContextLengthExceeded,
		Message:     "request exceeds the model context window",
		StatusCode:  status,
		ProviderErr: cause,
	}
}

// NewProviderError creates a new provider error.
func NewProviderError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeProvider,
		Message:     message,
		ProviderErr: providerErr,
	}
}

// ContextLengthExceededError is the normalized signal that a request exceeded
// the model's context window.
type ContextLengthExceededError struct {
	Message string
}

// Error implements the error interface.
func (e *ContextLengthExceededError) Error() string {
	return "Context length exceeded. Message: " + e.Message
}

// ToolErrorKind categorizes a failed tool request or response.
type ToolErrorKind string

const (
	ToolNotFound      ToolErrorKind = "ToolNotFound"
	InvalidParameters ToolErrorKind = "InvalidParameters"
	ExecutionError    ToolErrorKind = "ExecutionError"
	Internal          ToolErrorKind = "Internal"
)

// ToolError is the failure carried inside a tool request or tool response.
type ToolError struct {
	Kind    ToolErrorKind
	Message string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	switch e.Kind {
	case ToolNotFound:
		return "Tool not found: " + e.Message
	case InvalidParameters:
		return "The parameters to the tool call were invalid: " + e.Message
	case ExecutionError:
		return "The tool failed during execution with the following output: \n" + e.Message
	default:
		return "Internal error: " + e.Message
	}
}

// NewToolError creates a ToolError.
func NewToolError(kind ToolErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsToolError converts any error to a ToolError, treating foreign errors as internal.
func AsToolError(err error) *ToolError {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	return &ToolError{Kind: Internal, Message: err.Error()}
}

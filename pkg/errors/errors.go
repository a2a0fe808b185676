// Package errors provides structured error handling for the application.
// Every error that crosses the HTTP boundary is an *AppError with a stable code.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorCode represents an error code
type ErrorCode string

// Error codes exposed to API clients
const (
	// Client errors (4xx)
	CodeBadRequest        ErrorCode = "BAD_REQUEST"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests   ErrorCode = "TOO_MANY_REQUESTS"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Server errors (5xx)
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Business logic errors
	CodeRecipeNotFound     ErrorCode = "RECIPE_NOT_FOUND"
	CodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	CodeRecipeNotPersisted ErrorCode = "RECIPE_NOT_PERSISTED"
	CodeGenerationFailed   ErrorCode = "GENERATION_FAILED"
	CodeGenerationTimedOut ErrorCode = "GENERATION_TIMED_OUT"
	CodeEngagementFailed   ErrorCode = "ENGAGEMENT_FAILED"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodeRecipeNotFound, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition, CodeRecipeNotPersisted:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeGenerationFailed, CodeEngagementFailed, CodeExternalServiceError:
		return http.StatusBadGateway
	case CodeGenerationTimedOut:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAppError(CodeUnauthorized, message, "")
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// NewRecipeNotFoundError creates a recipe not found error
func NewRecipeNotFoundError(recipeID int64) *AppError {
	return NewAppError(
		CodeRecipeNotFound,
		"Recipe not found",
		fmt.Sprintf("Recipe with ID %d does not exist", recipeID),
	).WithMetadata("recipe_id", recipeID)
}

// NewSessionNotFoundError creates a session not found error
func NewSessionNotFoundError(sessionID string) *AppError {
	return NewAppError(
		CodeSessionNotFound,
		"Session not found",
		"The session expired or never existed",
	).WithMetadata("session_id", sessionID)
}

// NewInvalidTransitionError reports a wizard command that is not allowed from the current step
func NewInvalidTransitionError(step, event string) *AppError {
	return NewAppError(
		CodeInvalidTransition,
		"Invalid transition",
		fmt.Sprintf("event %q is not allowed at step %q", event, step),
	).WithMetadata("step", step).WithMetadata("event", event)
}

// NewGenerationError creates the user-facing error for a failed recipe generation
func NewGenerationError(timedOut bool, cause error) *AppError {
	if timedOut {
		return NewAppError(
			CodeGenerationTimedOut,
			"셰프가 고민에 빠졌습니다. 잠시 후 다시 시도해주세요!",
			"recipe generation timed out",
		).WithCause(cause)
	}
	return NewAppError(
		CodeGenerationFailed,
		"셰프가 고민에 빠졌습니다. 잠시 후 다시 시도해주세요!",
		"recipe generation failed",
	).WithCause(cause)
}

// NewNotPersistedError is returned for engagement on a recipe that was never saved
func NewNotPersistedError() *AppError {
	return NewAppError(
		CodeRecipeNotPersisted,
		"Recipe is not saved",
		"ratings, votes and comments require a saved recipe",
	)
}

// NewEngagementError wraps a failed rating, vote or comment submission
func NewEngagementError(action string, cause error) *AppError {
	return NewAppError(
		CodeEngagementFailed,
		"Action failed",
		fmt.Sprintf("Failed to %s", action),
	).WithCause(cause).WithMetadata("action", action)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from field errors
func NewValidationErrors(errors []ValidationError) *AppError {
	validationErrs := ValidationErrors(errors)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// FromValidator converts go-playground validator output into a validation AppError.
// Errors of any other type become a bad request.
func FromValidator(err error) *AppError {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return NewBadRequestError(err.Error())
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()),
		})
	}
	return NewValidationErrors(out)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
}

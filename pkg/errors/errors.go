// Package errors defines the AppError taxonomy. Every error that crosses the
// HTTP boundary is an AppError with a stable code.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is a stable, machine-readable error identifier
type ErrorCode string

const (
	CodeBadRequest        ErrorCode = "BAD_REQUEST"
	CodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeTooManyRequests   ErrorCode = "TOO_MANY_REQUESTS"
	CodeMealNotFound      ErrorCode = "MEAL_NOT_FOUND"
	CodeFoodNotFound      ErrorCode = "FOOD_NOT_FOUND"
	CodeSwapNotApplicable ErrorCode = "SWAP_NOT_APPLICABLE"
	CodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

var statusByCode = map[ErrorCode]int{
	CodeBadRequest:        http.StatusBadRequest,
	CodeValidationFailed:  http.StatusBadRequest,
	CodeConflict:          http.StatusConflict,
	CodeTooManyRequests:   http.StatusTooManyRequests,
	CodeMealNotFound:      http.StatusNotFound,
	CodeFoodNotFound:      http.StatusNotFound,
	CodeSwapNotApplicable: http.StatusUnprocessableEntity,
}

// HTTPStatus maps the code to a response status; unknown codes are 500
func (c ErrorCode) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AppError is an error with a code, a client-safe message and optional
// details. Cause is never serialized.
type AppError struct {
	Code     ErrorCode      `json:"code"`
	Message  string         `json:"message"`
	Details  string         `json:"details,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Cause    error          `json:"-"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error's code
func (e *AppError) StatusCode() int {
	return e.Code.HTTPStatus()
}

// WithMetadata attaches a key to the error's metadata
func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates an AppError
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewConflictError reports a write that lost a race with another writer
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

func NewTooManyRequestsError() *AppError {
	return NewAppError(CodeTooManyRequests, "Too many requests", "Rate limit exceeded, retry later")
}

// NewDatabaseError hides cause from clients and names the failed operation
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(CodeDatabaseError, "Database operation failed", "Failed to "+operation).
		WithCause(cause)
}

func NewMealNotFoundError(mealID string) *AppError {
	return NewAppError(CodeMealNotFound, "Meal not found", fmt.Sprintf("Meal with ID %s does not exist", mealID)).
		WithMetadata("meal_id", mealID)
}

func NewFoodNotFoundError(foodID int) *AppError {
	return NewAppError(CodeFoodNotFound, "Food not found", fmt.Sprintf("Food with ID %d does not exist", foodID)).
		WithMetadata("food_id", foodID)
}

// NewSwapNotApplicableError reports a swap the meal cannot take, such as an
// original entry the meal does not contain.
func NewSwapNotApplicableError(reason string) *AppError {
	return NewAppError(CodeSwapNotApplicable, "Swap cannot be applied", reason)
}

// Wrap returns the AppError inside err, or wraps err as an internal error
// with message.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "").WithCause(err)
}

// As finds the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode returns err's code, CodeInternal for errors outside the taxonomy
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors is every rejected field of one request
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(v))
	for i, fe := range v {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// NewValidationErrors wraps field errors as a VALIDATION_FAILED AppError
func NewValidationErrors(errs []ValidationError) *AppError {
	v := ValidationErrors(errs)
	return NewValidationError(v.Error()).WithMetadata("validation_errors", v)
}

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// ToErrorResponse renders err for a client
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetails{
		Code:      err.Code,
		Message:   err.Message,
		Details:   err.Details,
		Metadata:  err.Metadata,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}
}

// Package errors provides standardized error handling for the compliance
// calendar service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors, rejected synchronously to the caller.
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidStatusValue ErrorCode = "INVALID_STATUS_VALUE"
	ErrCodeInvalidChannel     ErrorCode = "INVALID_CHANNEL"
	ErrCodePaidWithoutDate    ErrorCode = "PAID_WITHOUT_DATE_PAID"
	ErrCodeInvalidIdentifier  ErrorCode = "INVALID_IDENTIFIER"

	// Not-found errors.
	ErrCodeEventNotFound  ErrorCode = "EVENT_NOT_FOUND"
	ErrCodeStatusNotFound ErrorCode = "STATUS_NOT_FOUND"

	// Authorization surface.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// Infrastructure errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	// Dispatch errors.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodePayloadSchemaInvalid   ErrorCode = "PAYLOAD_SCHEMA_INVALID"
	ErrCodeMaxRetryExceeded       ErrorCode = "MAX_RETRY_EXCEEDED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStatusValueError rejects an unknown compliance status value.
func NewInvalidStatusValueError(value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatusValue,
		Message:   "Invalid compliance status value",
		Details:   fmt.Sprintf("status: %s", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidChannelError rejects an unknown reminder channel.
func NewInvalidChannelError(value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidChannel,
		Message:   "Invalid reminder channel",
		Details:   fmt.Sprintf("channel: %s", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaidWithoutDateError rejects a PAID transition with no date paid.
func NewPaidWithoutDateError() *StandardError {
	return &StandardError{
		Code:      ErrCodePaidWithoutDate,
		Message:   "datePaid is required when marking status PAID",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidIdentifierError rejects a malformed id.
func NewInvalidIdentifierError(field, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidIdentifier,
		Message:   "Malformed identifier",
		Details:   fmt.Sprintf("%s: %s", field, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventNotFoundError creates a non-retryable not-found error.
func NewEventNotFoundError(eventID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventNotFound,
		Message:   "Compliance event not found",
		Details:   fmt.Sprintf("eventId: %s", eventID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusNotFoundError creates a non-retryable not-found error.
func NewStatusNotFoundError(eventID, employerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatusNotFound,
		Message:   "Compliance status record not found",
		Details:   fmt.Sprintf("eventId: %s, employerId: %s", eventID, employerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Caller is not allowed to perform this operation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable channel-delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadSchemaInvalidError creates a non-retryable payload contract error.
func NewPayloadSchemaInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadSchemaInvalid,
		Message:   "Notification payload does not match the contract schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMaxRetryExceededError marks a reminder as terminally failed.
func NewMaxRetryExceededError(reminderID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMaxRetryExceeded,
		Message:   "Max retry attempts exceeded",
		Details:   fmt.Sprintf("reminderId: %s", reminderID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

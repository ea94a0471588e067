// internal/common/errors/http.go
package errors

import "net/http"

// HTTPStatus maps an error code onto the HTTP status the API layer returns.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidStatusValue, ErrCodeInvalidChannel,
		ErrCodePaidWithoutDate, ErrCodeInvalidIdentifier, ErrCodePayloadSchemaInvalid:
		return http.StatusBadRequest
	case ErrCodeEventNotFound, ErrCodeStatusNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeDatabaseConnectionFailed, ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed, ErrCodeMaxRetryExceeded:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

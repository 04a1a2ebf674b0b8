package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// AppError is the application error type shared by the store, the sync service and the HTTP layer
type AppError struct {
	Raw            error
	HTTPCode       int
	Code           ErrorCode
	Message        string
	Details        map[string]string
	UpstreamStatus int
	Timestamp      time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// Wrap attaches an underlying cause
func (e AppError) Wrap(err error) AppError {
	e.Raw = err
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_INTERNAL,
		Message:   "Internal server error",
		Timestamp: time.Now(),
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_INVALID_ARGUMENT,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_INVALID_PAYLOAD,
		Message:   "Invalid payload",
		Timestamp: time.Now(),
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode:  http.StatusNotFound,
		Code:      ErrorCode_NOT_FOUND,
		Message:   fmt.Sprintf("%s not found", resource),
		Timestamp: time.Now(),
	}
}

// ErrConflict reports an action that is not allowed in the current state
func ErrConflict(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusConflict,
		Code:      ErrorCode_CONFLICT,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func ErrParticipantNotFound(participantID string) AppError {
	return ErrNotFound("Participant").WithDetail("participant_id", participantID)
}

// ErrValidation is a field-level validation failure. It is always recoverable.
func ErrValidation(field, message string) AppError {
	return AppError{
		HTTPCode:  http.StatusUnprocessableEntity,
		Code:      ErrorCode_VALIDATION_FAILED,
		Message:   message,
		Timestamp: time.Now(),
	}.WithDetail("field", field)
}

// ErrTransport reports an unreachable remote or a non-2xx answer.
// status is 0 when no response was received.
func ErrTransport(operation string, status int, err error) AppError {
	msg := fmt.Sprintf("Remote call failed: %s", operation)
	if status > 0 {
		msg = fmt.Sprintf("Remote call failed: %s returned status %d", operation, status)
	}
	appErr := AppError{
		Raw:            err,
		HTTPCode:       http.StatusBadGateway,
		Code:           ErrorCode_TRANSPORT_FAILED,
		Message:        msg,
		UpstreamStatus: status,
		Timestamp:      time.Now(),
	}.WithDetail("operation", operation)
	if status > 0 {
		appErr = appErr.WithDetail("status", strconv.Itoa(status))
	}
	return appErr
}

// ErrDecode reports a response body that is not JSON or violates the expected envelope
func ErrDecode(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusBadGateway,
		Code:      ErrorCode_DECODE_FAILED,
		Message:   fmt.Sprintf("Remote returned an undecodable body: %s", operation),
		Timestamp: time.Now(),
	}.WithDetail("operation", operation)
}

func ErrRemoteDisabled() AppError {
	return AppError{
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_REMOTE_DISABLED,
		Message:   "Remote calls are disabled",
		Timestamp: time.Now(),
	}
}

func ErrAnalysisInFlight() AppError {
	return AppError{
		HTTPCode:  http.StatusConflict,
		Code:      ErrorCode_ANALYSIS_IN_FLIGHT,
		Message:   "An audio analysis is already in progress",
		Timestamp: time.Now(),
	}
}

func ErrAnalysisRejected(meetingID string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadGateway,
		Code:      ErrorCode_ANALYSIS_REJECTED,
		Message:   "Analysis backend reported failure",
		Timestamp: time.Now(),
	}.WithDetail("meeting_id", meetingID)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_STORAGE_FAILED,
		Message:   fmt.Sprintf("Storage operation failed: %s", operation),
		Timestamp: time.Now(),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_CACHE_FAILED,
		Message:   fmt.Sprintf("Cache operation failed: %s", operation),
		Timestamp: time.Now(),
	}
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsValidation(err error) bool { return HasCode(err, ErrorCode_VALIDATION_FAILED) }

func IsTransport(err error) bool { return HasCode(err, ErrorCode_TRANSPORT_FAILED) }

func IsDecode(err error) bool { return HasCode(err, ErrorCode_DECODE_FAILED) }

// UpstreamStatus returns the remote HTTP status carried by a transport error, or 0
func UpstreamStatus(err error) int {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr.UpstreamStatus
	}
	return 0
}

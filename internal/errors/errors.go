package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the OCR worker
 *
 * Every failure that reaches a caller carries an ErrorCode so the queue layer,
 * the audit trail and the CLI can classify it without parsing messages.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Engine errors
	ErrorEngineUnavailable  ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorRecognitionFailed  ErrorCode = "OCR_ENGINE_ERROR"
	ErrorRecognitionTimeout ErrorCode = "OCR_TIMEOUT"
	ErrorNoTextFound        ErrorCode = "OCR_NO_TEXT_FOUND"

	// Input errors
	ErrorFileTypeNotAllowed ErrorCode = "FILE_TYPE_NOT_ALLOWED"
	ErrorFileTooLarge       ErrorCode = "FILE_TOO_LARGE"
	ErrorFileEmpty          ErrorCode = "FILE_EMPTY"
	ErrorFileCorrupted      ErrorCode = "FILE_CORRUPTED"
	ErrorPDFConversion      ErrorCode = "PDF_CONVERSION_ERROR"

	// Degraded capabilities (absorbed locally, never returned to callers)
	ErrorCorrectionDegraded    ErrorCode = "CORRECTION_DEGRADED"
	ErrorPreprocessingDegraded ErrorCode = "PREPROCESSING_DEGRADED"

	// Worker errors
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
	ErrorStorageFailed     ErrorCode = "STORAGE_FAILED"
	ErrorInternal          ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks. Matching is by code class, see ProcessingError.Is.
var (
	ErrEngineUnavailable = &ProcessingError{Code: ErrorEngineUnavailable}
	ErrRecognitionFailed = &ProcessingError{Code: ErrorRecognitionFailed}
	ErrUnsupportedInput  = &ProcessingError{Code: ErrorFileCorrupted}
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	PageIndex int // -1 when the error is not tied to a page
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Is reports whether target belongs to the same error class.
// A recognition timeout is also a recognition failure, and every input code
// matches ErrUnsupportedInput.
func (e *ProcessingError) Is(target error) bool {
	t, ok := target.(*ProcessingError)
	if !ok {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	switch t.Code {
	case ErrorRecognitionFailed:
		return e.Code == ErrorRecognitionTimeout
	case ErrorFileCorrupted:
		return IsInputCode(e.Code)
	}
	return false
}

// IsInputCode reports whether code describes a bad upload rather than a worker fault.
func IsInputCode(code ErrorCode) bool {
	switch code {
	case ErrorFileTypeNotAllowed, ErrorFileTooLarge, ErrorFileEmpty, ErrorFileCorrupted, ErrorPDFConversion:
		return true
	}
	return false
}

// Factory functions for common errors

func NewEngineUnavailableError(details map[string]interface{}, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorEngineUnavailable,
		Message:   "No recognition engine is available",
		PageIndex: -1,
		Timestamp: time.Now(),
		Details:   details,
		Cause:     cause,
	}
}

func NewRecognitionFailedError(jobID string, page int, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRecognitionFailed,
		Message:   fmt.Sprintf("Recognition failed on page %d", page+1),
		JobID:     jobID,
		PageIndex: page,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"page": page + 1,
		},
		Cause: cause,
	}
}

func NewRecognitionTimeoutError(jobID string, page int, timeout time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRecognitionTimeout,
		Message:   fmt.Sprintf("Recognition of page %d timed out after %v", page+1, timeout),
		JobID:     jobID,
		PageIndex: page,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"page":             page + 1,
			"timeout_duration": timeout.String(),
		},
		Cause: cause,
	}
}

func NewUnsupportedInputError(jobID string, code ErrorCode, message string, cause error) *ProcessingError {
	if !IsInputCode(code) {
		code = ErrorFileCorrupted
	}
	return &ProcessingError{
		Code:      code,
		Message:   message,
		JobID:     jobID,
		PageIndex: -1,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewProcessingTimeoutError(jobID string, duration time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", duration),
		JobID:     jobID,
		PageIndex: -1,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewStorageFailedError(jobID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store processing results",
		JobID:     jobID,
		PageIndex: -1,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewDegradedError describes a capability that fell back to a simpler path.
func NewDegradedError(code ErrorCode, reason string) *ProcessingError {
	return &ProcessingError{
		Code:      code,
		Message:   reason,
		PageIndex: -1,
		Timestamp: time.Now(),
	}
}

// CodeOf classifies any error. Unknown errors are INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ErrorInternal
}

// IsRetryable reports whether a queue should try the job again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	code := CodeOf(err)
	return !IsInputCode(code) && code != ErrorEngineUnavailable
}

// ToMap converts error to map for database storage
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.JobID != "" {
		result["job_id"] = e.JobID
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}

// WithDetail attaches a key/value to the error details and returns the error.
func (e *ProcessingError) WithDetail(key string, value interface{}) *ProcessingError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

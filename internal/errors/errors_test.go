package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognitionTimeoutIsRecognitionFailure(t *testing.T) {
	err := NewRecognitionTimeoutError("job-1", 1, 2*time.Second, nil)

	assert.True(t, stderrors.Is(err, ErrRecognitionFailed))
	assert.False(t, stderrors.Is(err, ErrEngineUnavailable))
	assert.Equal(t, ErrorRecognitionTimeout, CodeOf(err))
	assert.Equal(t, 1, err.PageIndex)
}

func TestWrappedErrorKeepsCode(t *testing.T) {
	inner := NewRecognitionFailedError("job-2", 0, fmt.Errorf("exit status 1"))
	wrapped := fmt.Errorf("document failed: %w", inner)

	assert.Equal(t, ErrorRecognitionFailed, CodeOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, ErrRecognitionFailed))
	assert.Contains(t, wrapped.Error(), "exit status 1")
}

func TestUnsupportedInputClass(t *testing.T) {
	for _, code := range []ErrorCode{ErrorFileEmpty, ErrorFileTooLarge, ErrorFileTypeNotAllowed, ErrorPDFConversion, ErrorFileCorrupted} {
		err := NewUnsupportedInputError("job", code, "bad input", nil)
		assert.True(t, stderrors.Is(err, ErrUnsupportedInput), code)
		assert.False(t, IsRetryable(err), code)
	}

	err := NewUnsupportedInputError("job", ErrorStorageFailed, "coerced", nil)
	assert.Equal(t, ErrorFileCorrupted, err.Code)
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, ErrorInternal, CodeOf(fmt.Errorf("boom")))
	assert.True(t, IsRetryable(fmt.Errorf("boom")))
}

func TestToMap(t *testing.T) {
	err := NewProcessingTimeoutError("job-3", time.Minute, fmt.Errorf("deadline"))
	m := err.ToMap()

	require.Equal(t, "PROCESSING_TIMEOUT", m["error_code"])
	assert.Equal(t, "job-3", m["job_id"])
	assert.Equal(t, "1m0s", m["timeout_duration"])
	assert.Equal(t, "deadline", m["cause"])
}

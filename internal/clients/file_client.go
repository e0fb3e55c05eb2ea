/**
 * File Client for the OCR worker
 *
 * Downloads documents referenced by fileUrl in queued jobs.
 * - retries transport errors and 5xx/429 responses with exponential backoff
 * - rejects bodies above the configured size cap without buffering them
 */

package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

const (
	defaultMaxRetries      = 5
	defaultInitialBackoff  = time.Second
	defaultMaxBackoff      = 32 * time.Second
	defaultDownloadTimeout = 10 * time.Minute
)

// FileClient downloads job files over HTTP(S)
type FileClient struct {
	httpClient     *http.Client
	maxFileSize    int64
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *logging.Logger
}

// FileClientConfig holds download limits. Zero values select the defaults.
type FileClientConfig struct {
	MaxFileSize    int64
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
	Logger         *logging.Logger
}

// NewFileClient creates a new file client
func NewFileClient(cfg FileClientConfig) *FileClient {
	c := &FileClient{
		maxFileSize:    cfg.MaxFileSize,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         cfg.Logger,
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	c.httpClient = &http.Client{Timeout: timeout}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = defaultInitialBackoff
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = defaultMaxBackoff
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("files")
	}
	return c
}

// permanentError marks a failure that another attempt cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Fetch downloads url and returns its body.
func (c *FileClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.logger.Debug("Downloading file", "url", url, "attempt", attempt, "maxRetries", c.maxRetries)

		data, err := c.fetchOnce(ctx, url)
		if err == nil {
			c.logger.Info("Download successful", "url", url, "attempt", attempt, "bytes", len(data))
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return nil, perm.err
		}

		lastErr = err
		c.logger.Warn("Download attempt failed", "url", url, "attempt", attempt, "error", err)
		if attempt == c.maxRetries {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}

	return nil, fmt.Errorf("failed to download file after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *FileClient) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("invalid file URL: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, &permanentError{err}
	}

	if c.maxFileSize > 0 && resp.ContentLength > c.maxFileSize {
		return nil, &permanentError{c.tooLarge(resp.ContentLength)}
	}

	if c.maxFileSize <= 0 {
		return io.ReadAll(resp.Body)
	}

	// One byte past the cap tells an oversized body without a Content-Length.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxFileSize {
		return nil, &permanentError{c.tooLarge(int64(len(data)))}
	}
	return data, nil
}

func (c *FileClient) tooLarge(size int64) error {
	return apperrors.NewUnsupportedInputError("", apperrors.ErrorFileTooLarge,
		fmt.Sprintf("file size exceeds maximum: %d > %d bytes", size, c.maxFileSize), nil)
}

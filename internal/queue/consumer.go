/**
 * Queue Consumer for the OCR worker
 *
 * Consumes jobs through asynq and processes documents.
 * Unsupported input is never retried.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/processor"
)

// DefaultProcessingTimeout applies when the config leaves it unset.
const DefaultProcessingTimeout = 300000 * time.Millisecond

// Consumer handles job consumption from an asynq queue
type Consumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor processor.DocumentProcessorInterface
	config    *ConsumerConfig
	logger    *logging.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         processor.DocumentProcessorInterface
	ProcessingTimeout int64 // milliseconds
	Logger            *logging.Logger
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("queue")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			// Exponential backoff: 5s, 10s, 20s, capped at 60s
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warn("Task processing error", "type", task.Type(), "errorCode", string(apperrors.CodeOf(err)), "error", err)
			}),
			Logger:   logger.Named("asynq").Sugar(),
			LogLevel: asynq.WarnLevel,
		},
	)

	consumer := &Consumer{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: cfg.Processor,
		config:    cfg,
		logger:    logger,
	}

	consumer.mux.HandleFunc(TaskTypeProcessDocument, consumer.handleProcessDocument)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName, "backend", "asynq")

	if err := c.server.Start(c.mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}
	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.Info("Stopping queue consumer")
	c.server.Shutdown()
	c.logger.Info("Queue consumer stopped")
	return nil
}

func (c *Consumer) timeout() time.Duration {
	if c.config.ProcessingTimeout > 0 {
		return time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}
	return DefaultProcessingTimeout
}

// handleProcessDocument processes a document processing job
func (c *Consumer) handleProcessDocument(ctx context.Context, task *asynq.Task) error {
	var payload JobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %v: %w", err, asynq.SkipRetry)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	_, err := runJob(ctx, c.processor, c.logger, &payload, c.timeout())
	if err != nil && !apperrors.IsRetryable(err) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// runJob processes one job under the job-level timeout and records its
// status. Both backends share it.
func runJob(ctx context.Context, proc processor.DocumentProcessorInterface, logger *logging.Logger, payload *JobPayload, timeout time.Duration) (*processor.ProcessResult, error) {
	startTime := time.Now()
	log := logger.With("jobId", payload.JobID)

	log.Info("Processing document", "filename", payload.Filename, "bytes", len(payload.FileBuffer), "timeoutMs", timeout.Milliseconds())

	if err := proc.UpdateJobStatus(ctx, payload.JobID, "processing", 0, nil); err != nil {
		log.Warn("Failed to update status to processing", "error", err)
	}

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := proc.ProcessDocument(processCtx, payload.ToRequest())
	duration := time.Since(startTime)

	// Status writes use a fresh deadline so a timed-out job is still recorded.
	statusCtx, statusCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer statusCancel()

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded && apperrors.CodeOf(err) == apperrors.ErrorInternal {
			err = apperrors.NewProcessingTimeoutError(payload.JobID, timeout, err)
		}
		log.Warn("Processing failed", "durationMs", duration.Milliseconds(), "errorCode", string(apperrors.CodeOf(err)), "error", err)

		meta := map[string]interface{}{
			"error_code":     string(apperrors.CodeOf(err)),
			"message":        err.Error(),
			"processingTime": duration.Milliseconds(),
		}
		if updateErr := proc.UpdateJobStatus(statusCtx, payload.JobID, "failed", 100, meta); updateErr != nil {
			log.Warn("Failed to update status to failed", "error", updateErr)
		}
		return nil, err
	}

	log.Info("Processing completed", "durationMs", duration.Milliseconds(), "confidence", result.Confidence, "engine", result.EngineUsed)

	if err := proc.UpdateJobStatus(statusCtx, payload.JobID, "completed", 100, completionMetadata(result)); err != nil {
		log.Warn("Failed to update status to completed", "error", err)
	}
	return result, nil
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
		"backend":     "asynq",
	}
}

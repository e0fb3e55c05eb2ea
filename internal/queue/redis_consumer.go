/**
 * Direct Redis Queue Consumer for the OCR worker
 *
 * Compatible with the TypeScript RedisQueue implementation:
 * job ids are pushed onto a list, job data lives in <queue>:data,
 * status sets track processing/completed/failed, and status events
 * are published on <queue>:events.
 */

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/processor"
)

var errNoJobs = errors.New("no jobs available")

// RedisJobData represents a job from the Redis queue
type RedisJobData struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Payload    JobPayload `json:"payload"`
	CreatedAt  time.Time  `json:"createdAt"`
	Attempts   int        `json:"attempts"`
	MaxRetries int        `json:"maxRetries"`
}

// shouldRetry reports whether a failed job goes back on the queue. Attempts
// must already include the failed run.
func (j *RedisJobData) shouldRetry(err error) bool {
	return apperrors.IsRetryable(err) && j.Attempts < j.MaxRetries
}

// RedisConsumer handles job consumption from Redis queue
type RedisConsumer struct {
	client    *redis.Client
	processor processor.DocumentProcessorInterface
	config    *RedisConsumerConfig
	logger    *logging.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// RedisConsumerConfig holds consumer configuration
type RedisConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         processor.DocumentProcessorInterface
	ProcessingTimeout int64 // milliseconds
	Logger            *logging.Logger
}

// NewRedisConsumer creates a new Redis-based queue consumer
func NewRedisConsumer(ctx context.Context, cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c, err := newRedisConsumer(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

func newRedisConsumer(client *redis.Client, cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.QueueName == "" {
		cfg.QueueName = "ocr:jobs"
	}

	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("queue")
	}

	consumerCtx, cancel := context.WithCancel(context.Background())

	return &RedisConsumer{
		client:    client,
		processor: cfg.Processor,
		config:    cfg,
		logger:    logger,
		ctx:       consumerCtx,
		cancel:    cancel,
	}, nil
}

func (c *RedisConsumer) key(suffix string) string {
	return c.config.QueueName + ":" + suffix
}

func (c *RedisConsumer) timeout() time.Duration {
	if c.config.ProcessingTimeout > 0 {
		return time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}
	return DefaultProcessingTimeout
}

// Start begins processing jobs from the queue
func (c *RedisConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName, "backend", "redis")

	for i := 0; i < c.config.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}
	return nil
}

// Stop gracefully stops the consumer
func (c *RedisConsumer) Stop(ctx context.Context) error {
	c.logger.Info("Stopping queue consumer")
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// worker is a goroutine that processes jobs
func (c *RedisConsumer) worker(id int) {
	defer c.wg.Done()
	log := c.logger.With("worker", id)
	log.Debug("Worker started")

	for {
		select {
		case <-c.ctx.Done():
			log.Debug("Worker stopping")
			return
		default:
			if err := c.processNextJob(); err != nil {
				if errors.Is(err, errNoJobs) || c.ctx.Err() != nil {
					continue
				}
				log.Warn("Worker error", "error", err)
				select {
				case <-time.After(time.Second):
				case <-c.ctx.Done():
				}
			}
		}
	}
}

// processNextJob fetches and processes the next job from the queue
func (c *RedisConsumer) processNextJob() error {
	result, err := c.client.BRPop(c.ctx, 5*time.Second, c.config.QueueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errNoJobs
		}
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	id := result[1]

	data, err := c.client.HGet(c.ctx, c.key("data"), id).Result()
	if err != nil {
		return fmt.Errorf("failed to get job data: %w", err)
	}

	var job RedisJobData
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		c.markFailed(id, map[string]interface{}{"error": err.Error(), "error_code": string(apperrors.ErrorInternal)})
		return fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	if job.ID == "" {
		job.ID = id
	}
	if err := job.Payload.Validate(); err != nil {
		c.markFailed(job.ID, map[string]interface{}{"error": err.Error(), "error_code": string(apperrors.ErrorFileEmpty)})
		return err
	}

	c.markProcessing(job.ID)
	c.publish(job.Payload.JobID, "processing")

	processResult, err := runJob(c.ctx, c.processor, c.logger, &job.Payload, c.timeout())
	if err != nil {
		job.Attempts++
		if job.shouldRetry(err) {
			updated, _ := json.Marshal(job)
			c.client.HSet(c.ctx, c.key("data"), job.ID, updated)
			c.client.SRem(c.ctx, c.key("processing"), job.ID)
			c.client.LPush(c.ctx, c.config.QueueName, job.ID)
			c.logger.Info("Job re-queued for retry", "jobId", job.Payload.JobID, "attempt", job.Attempts, "maxRetries", job.MaxRetries)
			return nil
		}
		c.markFailed(job.ID, map[string]interface{}{
			"error":      err.Error(),
			"error_code": string(apperrors.CodeOf(err)),
			"attempts":   job.Attempts,
		})
		c.publish(job.Payload.JobID, "failed")
		return nil
	}

	c.markCompleted(job.ID, processResult)
	c.publish(job.Payload.JobID, "completed")
	return nil
}

func (c *RedisConsumer) markProcessing(id string) {
	c.client.SAdd(c.ctx, c.key("processing"), id)
}

func (c *RedisConsumer) markCompleted(id string, result *processor.ProcessResult) {
	ctx := context.WithoutCancel(c.ctx)
	c.client.SRem(ctx, c.key("processing"), id)
	c.client.SAdd(ctx, c.key("completed"), id)
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			c.logger.Warn("Failed to encode job result", "id", id, "error", err)
			return
		}
		c.client.HSet(ctx, c.key("results"), id, data)
	}
}

func (c *RedisConsumer) markFailed(id string, details map[string]interface{}) {
	ctx := context.WithoutCancel(c.ctx)
	c.client.SRem(ctx, c.key("processing"), id)
	c.client.SAdd(ctx, c.key("failed"), id)
	data, _ := json.Marshal(details)
	c.client.HSet(ctx, c.key("errors"), id, data)
}

// publish emits a status event for WebSocket streaming.
func (c *RedisConsumer) publish(jobID, status string) {
	data, _ := json.Marshal(statusEvent(jobID, status, time.Now()))
	if err := c.client.Publish(context.WithoutCancel(c.ctx), c.key("events"), data).Err(); err != nil {
		c.logger.Debug("Failed to publish job event", "jobId", jobID, "error", err)
	}
}

func statusEvent(jobID, status string, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"event":     "job:" + status,
		"jobId":     jobID,
		"timestamp": at.UTC().Format(time.RFC3339),
	}
}

// GetStats returns queue statistics
func (c *RedisConsumer) GetStats(ctx context.Context) (map[string]int64, error) {
	pipe := c.client.Pipeline()
	waiting := pipe.LLen(ctx, c.config.QueueName)
	processing := pipe.SCard(ctx, c.key("processing"))
	completed := pipe.SCard(ctx, c.key("completed"))
	failed := pipe.SCard(ctx, c.key("failed"))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}

	return map[string]int64{
		"waiting":    waiting.Val(),
		"processing": processing.Val(),
		"completed":  completed.Val(),
		"failed":     failed.Val(),
	}, nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Enqueuer submits OCR jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload *JobPayload) (string, error)
	Close() error
}

// Producer submits jobs to the asynq backend.
type Producer struct {
	client    *asynq.Client
	queueName string
	maxRetry  int
	timeout   time.Duration
}

// NewProducer creates an asynq producer for queueName.
func NewProducer(redisURL, queueName string, maxRetry int, timeout time.Duration) (*Producer, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if queueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	return &Producer{
		client:    asynq.NewClient(redisOpt),
		queueName: queueName,
		maxRetry:  maxRetry,
		timeout:   timeout,
	}, nil
}

// Enqueue submits payload and returns the task id. The job id doubles as
// the task id so a job cannot be queued twice.
func (p *Producer) Enqueue(ctx context.Context, payload *JobPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}

	opts := []asynq.Option{
		asynq.Queue(p.queueName),
		asynq.TaskID(payload.JobID),
		asynq.MaxRetry(p.maxRetry),
	}
	if p.timeout > 0 {
		opts = append(opts, asynq.Timeout(p.timeout))
	}

	info, err := p.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeProcessDocument, data), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job %s: %w", payload.JobID, err)
	}
	return info.ID, nil
}

// Close releases the asynq client.
func (p *Producer) Close() error {
	return p.client.Close()
}

// RedisProducer submits jobs to the list-based queue read by RedisConsumer.
type RedisProducer struct {
	client     *redis.Client
	queueName  string
	maxRetries int
}

// NewRedisProducer connects to redisURL.
func NewRedisProducer(ctx context.Context, redisURL, queueName string, maxRetries int) (*RedisProducer, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if queueName == "" {
		queueName = "ocr:jobs"
	}
	return &RedisProducer{client: client, queueName: queueName, maxRetries: maxRetries}, nil
}

// Enqueue stores the job data and pushes its id. Both writes happen in
// one transaction.
func (p *RedisProducer) Enqueue(ctx context.Context, payload *JobPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	job := RedisJobData{
		ID:         payload.JobID,
		Type:       TaskTypeProcessDocument,
		Payload:    *payload,
		CreatedAt:  time.Now().UTC(),
		MaxRetries: p.maxRetries,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, p.queueName+":data", job.ID, data)
		pipe.LPush(ctx, p.queueName, job.ID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job %s: %w", payload.JobID, err)
	}
	return job.ID, nil
}

// Close releases the Redis client.
func (p *RedisProducer) Close() error {
	return p.client.Close()
}

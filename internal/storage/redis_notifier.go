package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/vocabulary"
)

// DefaultVocabularyChannel is the pub/sub channel for vocabulary changes.
const DefaultVocabularyChannel = "ocr:vocabulary:changed"

var _ vocabulary.Notifier = (*RedisNotifier)(nil)

// VocabularyMessage is published whenever the approved word set changes.
type VocabularyMessage struct {
	Reason string    `json:"reason"`
	Worker string    `json:"worker"`
	At     time.Time `json:"at"`
}

// RedisNotifier broadcasts vocabulary changes so other workers reload their
// snapshot. Messages from the own worker are ignored by Subscribe.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	worker  string
	logger  *logging.Logger
}

// NewRedisNotifier connects to redisURL and checks the connection.
func NewRedisNotifier(ctx context.Context, redisURL, channel, worker string, logger *logging.Logger) (*RedisNotifier, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedisNotifier(client, channel, worker, logger), nil
}

func newRedisNotifier(client *redis.Client, channel, worker string, logger *logging.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultVocabularyChannel
	}
	if logger == nil {
		logger = logging.NewLogger("notifier")
	}
	return &RedisNotifier{client: client, channel: channel, worker: worker, logger: logger}
}

// VocabularyChanged publishes a change notice.
func (n *RedisNotifier) VocabularyChanged(ctx context.Context, reason string) error {
	payload, err := encodeVocabularyMessage(VocabularyMessage{Reason: reason, Worker: n.worker, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish vocabulary change: %w", err)
	}
	return nil
}

// Subscribe calls handler for every change published by another worker until
// ctx is done.
func (n *RedisNotifier) Subscribe(ctx context.Context, handler func(context.Context, VocabularyMessage)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			m, err := decodeVocabularyMessage([]byte(msg.Payload))
			if err != nil {
				n.logger.Warn("Ignoring malformed vocabulary message", "error", err)
				continue
			}
			if m.Worker != "" && m.Worker == n.worker {
				continue
			}
			handler(ctx, m)
		}
	}
}

// Close closes the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

func encodeVocabularyMessage(m VocabularyMessage) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vocabulary message: %w", err)
	}
	return data, nil
}

func decodeVocabularyMessage(data []byte) (VocabularyMessage, error) {
	var m VocabularyMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return VocabularyMessage{}, fmt.Errorf("failed to unmarshal vocabulary message: %w", err)
	}
	if m.Reason == "" {
		return VocabularyMessage{}, fmt.Errorf("vocabulary message has no reason")
	}
	return m, nil
}

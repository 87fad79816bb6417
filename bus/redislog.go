package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stackmesh/concierge/graph"
)

// RedisOptions configure the Redis-backed history mirror.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "concierge:"
	TTL      time.Duration // Expiration for the history list, default 0 (no expiration)
}

// RedisHistory mirrors accepted bus messages into a Redis list, giving the
// in-memory history a durable audit trail.
type RedisHistory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ HistorySink = (*RedisHistory)(nil)

// NewRedisHistory creates a Redis-backed history sink.
func NewRedisHistory(opts RedisOptions) *RedisHistory {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "concierge:"
	}

	return &RedisHistory{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// NewRedisHistoryWithClient wraps an existing client, used by tests.
func NewRedisHistoryWithClient(client *redis.Client, prefix string) *RedisHistory {
	if prefix == "" {
		prefix = "concierge:"
	}
	return &RedisHistory{client: client, prefix: prefix}
}

func (h *RedisHistory) historyKey() string {
	return h.prefix + "bus:history"
}

// record is the serialized form of one message. Payloads are recorded by
// kind only; the structured payload stays in process.
type record struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Content     string    `json:"content"`
	PayloadKind string    `json:"payload_kind,omitempty"`
}

func payloadKind(p graph.Payload) string {
	switch p.(type) {
	case graph.RoutingIntent:
		return "routing_intent"
	case graph.EntityResult:
		return "entity_result"
	case graph.TicketResult:
		return "ticket_result"
	default:
		return ""
	}
}

// Append pushes the message onto the history list.
func (h *RedisHistory) Append(ctx context.Context, m Message) error {
	data, err := json.Marshal(record{
		ID:          m.ID,
		Timestamp:   m.Timestamp,
		From:        m.From,
		To:          m.To,
		Content:     m.Content,
		PayloadKind: payloadKind(m.Payload),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal bus message: %w", err)
	}
	if err := h.client.RPush(ctx, h.historyKey(), data).Err(); err != nil {
		return fmt.Errorf("failed to append bus message: %w", err)
	}
	if h.ttl > 0 {
		if err := h.client.Expire(ctx, h.historyKey(), h.ttl).Err(); err != nil {
			return fmt.Errorf("failed to set history expiry: %w", err)
		}
	}
	return nil
}

// Len returns the number of mirrored messages.
func (h *RedisHistory) Len(ctx context.Context) (int64, error) {
	return h.client.LLen(ctx, h.historyKey()).Result()
}

// Close releases the underlying client.
func (h *RedisHistory) Close() error {
	return h.client.Close()
}

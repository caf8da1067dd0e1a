package notifier

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/payledger/internal/domain"
)

// RedisNotifier publishes notifications on a Redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a new RedisNotifier.
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes the JSON-encoded notification.
func (n *RedisNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	payload, err := encode(notification)
	if err != nil {
		return err
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}

	return nil
}

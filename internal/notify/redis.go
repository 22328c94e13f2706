package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPollTimeout = 5 * time.Second

// RedisQueue stores notifications on a Redis list (LPUSH in, BRPOP out).
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisQueue constructs a queue on key.
func NewRedisQueue(client *redis.Client, key string, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{client: client, key: key, logger: logger}
}

// Notify enqueues the notification.
func (q *RedisQueue) Notify(ctx context.Context, n Notification) error {
	payload, err := encode(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Consume pops notifications oldest first until ctx is done.
func (q *RedisQueue) Consume(ctx context.Context, handle HandlerFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		res, err := q.client.BRPop(ctx, redisPollTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			q.logger.Warn("redis queue read failed", zap.String("queue", q.key), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		// BRPOP returns [key, value].
		if len(res) != 2 {
			continue
		}
		n, err := decode([]byte(res[1]))
		if err != nil {
			q.logger.Warn("dropping malformed notification", zap.String("queue", q.key), zap.Error(err))
			continue
		}
		if err := handle(ctx, n); err != nil {
			q.logger.Error("notification handler failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
}

// Close is a no-op; the client is owned by persistence.Redis.
func (q *RedisQueue) Close() error {
	return nil
}

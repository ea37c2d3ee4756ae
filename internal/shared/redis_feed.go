package shared

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStreamFeed publishes aggregates to a Redis stream so dashboards in the
// lab can follow the cage live without waiting for the CSV dumps.
type RedisStreamFeed struct {
	client *redis.Client
	stream string
}

// NewRedisStreamFeed connects to Redis and verifies the server is reachable
// before the daemon starts depending on it.
func NewRedisStreamFeed(addr, stream string) (*RedisStreamFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStreamFeed{client: client, stream: stream}, nil
}

// Publish appends one aggregate to the stream. Errors are returned to the
// caller to log; they never stop the sampling loop.
func (f *RedisStreamFeed) Publish(topic string, body []byte) error {
	ctx := context.Background()
	err := f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]interface{}{
			"topic": topic,
			"body":  body,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd failed: %w", err)
	}
	return nil
}

func (f *RedisStreamFeed) Close() error {
	return f.client.Close()
}

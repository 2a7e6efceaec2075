package notify

import (
	"context"

	"github.com/angelmondragon/caskettrack/pkg/config"
)

type redisChannel interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RedisPublisher sends events over Redis PUBLISH on the topic channel.
type RedisPublisher struct {
	client  redisChannel
	channel string
}

func NewRedisPublisher(client redisChannel, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return config.NotifyDriverRedis }

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.Marshal()
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, p.channel, payload)
	return err
}

// Close is a no-op; the Redis client is shared and closed by its owner.
func (p *RedisPublisher) Close() error { return nil }

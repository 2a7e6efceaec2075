package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/angelmondragon/caskettrack/pkg/logger"
	"github.com/angelmondragon/caskettrack/pkg/pubsub"
	"github.com/angelmondragon/caskettrack/pkg/redis"
)

// Deps carries shared clients owned by the caller.
type Deps struct {
	Redis  *redis.Client
	PubSub *pubsub.Client
}

// Build connects every driver listed in cfg.Notify.Drivers. On error the
// drivers opened so far are closed.
func Build(ctx context.Context, cfg *config.Config, logg *logger.Logger, deps Deps) (*Multi, error) {
	topic := cfg.Notify.Topic
	var pubs []Publisher

	fail := func(err error) (*Multi, error) {
		_ = NewMulti(pubs...).Close()
		return nil, err
	}

	seen := map[string]bool{}
	for _, raw := range cfg.Notify.Drivers {
		driver := strings.ToLower(strings.TrimSpace(raw))
		if driver == "" || seen[driver] {
			continue
		}
		seen[driver] = true

		switch driver {
		case config.NotifyDriverLog:
			pubs = append(pubs, NewLogPublisher(logg, topic))

		case config.NotifyDriverMQTT:
			p, err := NewMQTTPublisher(cfg.MQTT, topic, cfg.Notify.Timeout)
			if err != nil {
				return fail(err)
			}
			pubs = append(pubs, p)

		case config.NotifyDriverRedis:
			if deps.Redis == nil {
				return fail(fmt.Errorf("notify driver %q requires redis to be configured", driver))
			}
			pubs = append(pubs, NewRedisPublisher(deps.Redis, topic))

		case config.NotifyDriverPubSub:
			if deps.PubSub == nil {
				return fail(fmt.Errorf("notify driver %q requires a pubsub client", driver))
			}
			name := cfg.PubSub.InventoryTopic
			if name == "" {
				name = DashedTopic(topic)
			}
			pub := deps.PubSub.Publisher(name)
			if pub == nil {
				return fail(fmt.Errorf("pubsub topic %q could not be resolved", name))
			}
			pubs = append(pubs, NewPubSubPublisher(pub, name))

		case config.NotifyDriverNATS:
			p, err := NewNATSPublisher(ctx, cfg.NATS, DottedTopic(topic))
			if err != nil {
				return fail(err)
			}
			pubs = append(pubs, p)

		case config.NotifyDriverKafka:
			pubs = append(pubs, NewKafkaPublisher(cfg.Kafka, DottedTopic(topic)))

		default:
			return fail(fmt.Errorf("unknown notify driver %q", raw))
		}
	}

	m := NewMulti(pubs...)
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"drivers": m.Drivers(), "topic": topic}), "notifier ready")
	}
	return m, nil
}

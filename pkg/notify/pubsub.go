package notify

import (
	"context"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/caskettrack/pkg/config"
)

type sendFunc func(ctx context.Context, data []byte, attrs map[string]string) error

// PubSubPublisher sends events to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	send  sendFunc
	stop  func()
	topic string
}

func NewPubSubPublisher(p *pubsub.Publisher, topic string) *PubSubPublisher {
	return &PubSubPublisher{
		send: func(ctx context.Context, data []byte, attrs map[string]string) error {
			_, err := p.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
			return err
		},
		stop:  p.Stop,
		topic: topic,
	}
}

func (p *PubSubPublisher) Name() string { return config.NotifyDriverPubSub }

func (p *PubSubPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.Marshal()
	if err != nil {
		return err
	}
	return p.send(ctx, payload, map[string]string{
		"action":       evt.Action,
		"product_name": evt.Data.ProductName,
	})
}

// Close flushes pending messages. The Pub/Sub client itself is closed by its
// owner.
func (p *PubSubPublisher) Close() error {
	if p.stop != nil {
		p.stop()
	}
	return nil
}

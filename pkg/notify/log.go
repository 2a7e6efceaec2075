package notify

import (
	"context"

	"github.com/angelmondragon/caskettrack/pkg/logger"
)

// LogPublisher writes events to the structured log. It is the default driver
// for local development.
type LogPublisher struct {
	logg  *logger.Logger
	topic string
}

func NewLogPublisher(logg *logger.Logger, topic string) *LogPublisher {
	return &LogPublisher{logg: logg, topic: topic}
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	if p.logg == nil {
		return nil
	}
	ctx = p.logg.WithFields(ctx, map[string]any{
		"topic":        p.topic,
		"action":       evt.Action,
		"barcode":      evt.Data.Barcode,
		"product_name": evt.Data.ProductName,
		"quantity":     evt.Data.Quantity,
	})
	p.logg.Info(ctx, "inventory.event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
